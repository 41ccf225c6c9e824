package domain

import (
	"strings"
	"time"
)

// Scorable exposes the text a relevance scorer runs over
type Scorable interface {
	SearchableText() string
}

// Filterable reports whether a record satisfies request filters.
// Dimensions a record does not carry are treated as satisfied.
type Filterable interface {
	MatchesFilters(f SearchFilters) bool
}

// Projectable converts a record to its shared search projection
type Projectable interface {
	Project() SearchableItem
}

// Record is the capability set every collection record implements
type Record interface {
	Scorable
	Filterable
	Projectable
}

// Question is a community interview question
type Question struct {
	ID                string
	Title             string
	Content           string
	Tags              []string
	Difficulty        string
	Company           string
	AuthorID          string
	Upvotes           int
	Views             int
	AnswerCount       int
	HasAcceptedAnswer bool
	CreatedAt         time.Time
}

func (q Question) SearchableText() string {
	return joinText(q.Title, q.Content, strings.Join(q.Tags, " "))
}

func (q Question) MatchesFilters(f SearchFilters) bool {
	if len(f.Tags) > 0 && !anyContainsFold(q.Tags, f.Tags) {
		return false
	}
	if len(f.Difficulties) > 0 && !containsFold(f.Difficulties, q.Difficulty) {
		return false
	}
	if len(f.Companies) > 0 && !containsFold(f.Companies, q.Company) {
		return false
	}
	return f.DateRange.Contains(q.CreatedAt)
}

func (q Question) Project() SearchableItem {
	return SearchableItem{
		ID:          q.ID,
		Kind:        ItemKindQuestion,
		Title:       q.Title,
		Description: Summarize(q.Content),
		URL:         ItemURL(ItemKindQuestion, q.ID),
		Metadata: map[string]any{
			"tags":              nonNilStrings(q.Tags),
			"difficulty":        q.Difficulty,
			"company":           q.Company,
			"upvotes":           q.Upvotes,
			"views":             q.Views,
			"answerCount":       q.AnswerCount,
			"hasAcceptedAnswer": q.HasAcceptedAnswer,
			"createdAt":         q.CreatedAt,
		},
	}
}

// Experience is an interview experience write-up
type Experience struct {
	ID           string
	Title        string
	Content      string
	Company      string
	Role         string
	Tags         []string
	Outcome      string
	Difficulty   string
	AuthorID     string
	Upvotes      int
	Views        int
	CommentCount int
	CreatedAt    time.Time
}

func (e Experience) SearchableText() string {
	return joinText(e.Title, e.Content, e.Company, e.Role, strings.Join(e.Tags, " "))
}

func (e Experience) MatchesFilters(f SearchFilters) bool {
	if len(f.Tags) > 0 && !anyContainsFold(e.Tags, f.Tags) {
		return false
	}
	if len(f.Difficulties) > 0 && !containsFold(f.Difficulties, e.Difficulty) {
		return false
	}
	if len(f.Companies) > 0 && !containsFold(f.Companies, e.Company) {
		return false
	}
	return f.DateRange.Contains(e.CreatedAt)
}

func (e Experience) Project() SearchableItem {
	return SearchableItem{
		ID:          e.ID,
		Kind:        ItemKindExperience,
		Title:       e.Title,
		Description: Summarize(e.Content),
		URL:         ItemURL(ItemKindExperience, e.ID),
		Metadata: map[string]any{
			"tags":         nonNilStrings(e.Tags),
			"company":      e.Company,
			"role":         e.Role,
			"outcome":      e.Outcome,
			"difficulty":   e.Difficulty,
			"upvotes":      e.Upvotes,
			"views":        e.Views,
			"commentCount": e.CommentCount,
			"createdAt":    e.CreatedAt,
		},
	}
}

// Material is a study resource
type Material struct {
	ID          string
	Name        string
	Description string
	Category    string
	Tags        []string
	Difficulty  string
	AccessCount int
	CreatedAt   time.Time
}

func (m Material) SearchableText() string {
	return joinText(m.Name, m.Description, m.Category, strings.Join(m.Tags, " "))
}

func (m Material) MatchesFilters(f SearchFilters) bool {
	if len(f.Tags) > 0 && !anyContainsFold(m.Tags, f.Tags) {
		return false
	}
	if len(f.Difficulties) > 0 && !containsFold(f.Difficulties, m.Difficulty) {
		return false
	}
	return f.DateRange.Contains(m.CreatedAt)
}

func (m Material) Project() SearchableItem {
	return SearchableItem{
		ID:          m.ID,
		Kind:        ItemKindMaterial,
		Title:       m.Name,
		Description: Summarize(m.Description),
		URL:         ItemURL(ItemKindMaterial, m.ID),
		Metadata: map[string]any{
			"tags":        nonNilStrings(m.Tags),
			"category":    m.Category,
			"difficulty":  m.Difficulty,
			"accessCount": m.AccessCount,
			"createdAt":   m.CreatedAt,
		},
	}
}

// Company is an employer profile
type Company struct {
	ID          string
	Name        string
	Description string
	Industry    string
	Location    string
	CreatedAt   time.Time
}

func (c Company) SearchableText() string {
	return joinText(c.Name, c.Description, c.Industry)
}

// MatchesFilters applies the companies dimension to the company name.
func (c Company) MatchesFilters(f SearchFilters) bool {
	if len(f.Companies) > 0 && !containsFold(f.Companies, c.Name) {
		return false
	}
	return f.DateRange.Contains(c.CreatedAt)
}

func (c Company) Project() SearchableItem {
	return SearchableItem{
		ID:          c.ID,
		Kind:        ItemKindCompany,
		Title:       c.Name,
		Description: Summarize(c.Description),
		URL:         ItemURL(ItemKindCompany, c.ID),
		Metadata: map[string]any{
			"industry":  c.Industry,
			"location":  c.Location,
			"createdAt": c.CreatedAt,
		},
	}
}

// User is a public member profile
type User struct {
	ID               string
	Name             string
	Username         string
	Bio              string
	FocusAreas       []string
	TargetCompanies  []string
	PreparationLevel PreparationLevel
	CreatedAt        time.Time
}

func (u User) SearchableText() string {
	return joinText(u.Name, u.Username, u.Bio)
}

// MatchesFilters treats focus areas as tags and preparation level as difficulty.
func (u User) MatchesFilters(f SearchFilters) bool {
	if len(f.Tags) > 0 && !anyContainsFold(u.FocusAreas, f.Tags) {
		return false
	}
	if len(f.Difficulties) > 0 && !containsFold(f.Difficulties, string(u.PreparationLevel)) {
		return false
	}
	return f.DateRange.Contains(u.CreatedAt)
}

func (u User) Project() SearchableItem {
	title := u.Name
	if title == "" {
		title = u.Username
	}
	return SearchableItem{
		ID:          u.ID,
		Kind:        ItemKindUser,
		Title:       title,
		Description: Summarize(u.Bio),
		URL:         ItemURL(ItemKindUser, u.ID),
		Metadata: map[string]any{
			"username":         u.Username,
			"tags":             nonNilStrings(u.FocusAreas),
			"preparationLevel": string(u.PreparationLevel),
			"createdAt":        u.CreatedAt,
		},
	}
}

// Profile returns the personalization snapshot for the user.
func (u User) Profile() *UserProfile {
	return &UserProfile{
		UserID:           u.ID,
		FocusAreas:       u.FocusAreas,
		TargetCompanies:  u.TargetCompanies,
		PreparationLevel: u.PreparationLevel,
	}
}

func joinText(parts ...string) string {
	return strings.Join(parts, " ")
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
