package repository

import (
	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/jackc/pgx/v5"
)

func fieldSet(fields ...string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

var questionsTable = table{
	name: "questions",
	columns: []string{
		"id", "title", "content", "tags", "difficulty", "company", "author_id",
		"upvotes", "views", "answer_count", "has_accepted_answer", "created_at",
	},
	textColumns: []string{"title", "content"},
	tags:        "tags",
	difficulty:  "difficulty",
	company:     "company",
	author:      "author_id",
	fields: fieldSet(
		domain.SortViews, domain.SortUpvotes, domain.SortCreatedAt,
		domain.SortAnswerCount, domain.SortHasAcceptedAnswer,
	),
}

var experiencesTable = table{
	name: "experiences",
	columns: []string{
		"id", "title", "content", "company", "role", "tags", "outcome", "difficulty",
		"author_id", "upvotes", "views", "comment_count", "created_at",
	},
	textColumns: []string{"title", "content", "company", "role"},
	tags:        "tags",
	difficulty:  "difficulty",
	company:     "company",
	author:      "author_id",
	fields:      fieldSet(domain.SortViews, domain.SortUpvotes, domain.SortCreatedAt),
}

var materialsTable = table{
	name:        "materials",
	columns:     []string{"id", "name", "description", "category", "tags", "difficulty", "access_count", "created_at"},
	textColumns: []string{"name", "description", "category"},
	tags:        "tags",
	difficulty:  "difficulty",
	category:    "category",
	label:       "name",
	fields:      fieldSet(domain.SortAccessCount, domain.SortCreatedAt),
}

var companiesTable = table{
	name:        "companies",
	columns:     []string{"id", "name", "description", "industry", "location", "created_at"},
	textColumns: []string{"name", "description", "industry"},
	company:     "name",
	label:       "name",
	fields:      fieldSet(domain.SortCreatedAt),
}

var usersTable = table{
	name: "users",
	columns: []string{
		"id", "name", "username", "bio", "focus_areas", "target_companies", "preparation_level", "created_at",
	},
	textColumns: []string{"name", "username", "bio"},
	tags:        "focus_areas",
	difficulty:  "preparation_level",
	label:       "username",
	fields:      fieldSet(domain.SortCreatedAt),
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	var authorID *string
	err := row.Scan(&q.ID, &q.Title, &q.Content, &q.Tags, &q.Difficulty, &q.Company, &authorID,
		&q.Upvotes, &q.Views, &q.AnswerCount, &q.HasAcceptedAnswer, &q.CreatedAt)
	q.AuthorID = derefString(authorID)
	return q, err
}

func scanExperience(row pgx.Row) (domain.Experience, error) {
	var e domain.Experience
	var authorID *string
	err := row.Scan(&e.ID, &e.Title, &e.Content, &e.Company, &e.Role, &e.Tags, &e.Outcome, &e.Difficulty,
		&authorID, &e.Upvotes, &e.Views, &e.CommentCount, &e.CreatedAt)
	e.AuthorID = derefString(authorID)
	return e, err
}

func scanMaterial(row pgx.Row) (domain.Material, error) {
	var m domain.Material
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.Tags, &m.Difficulty, &m.AccessCount, &m.CreatedAt)
	return m, err
}

func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Industry, &c.Location, &c.CreatedAt)
	return c, err
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var level string
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Bio, &u.FocusAreas, &u.TargetCompanies, &level, &u.CreatedAt)
	u.PreparationLevel = domain.PreparationLevel(level)
	return u, err
}
