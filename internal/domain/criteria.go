package domain

// Sortable fields accepted by FindByFieldCriteria. Stores reject fields a
// collection does not carry.
const (
	SortViews             = "views"
	SortUpvotes           = "upvotes"
	SortCreatedAt         = "created_at"
	SortAccessCount       = "access_count"
	SortAnswerCount       = "answer_count"
	SortHasAcceptedAnswer = "has_accepted_answer"
)

// SortField is a single ORDER BY component
type SortField struct {
	Field string
	Desc  bool
}

// Desc is shorthand for a descending sort on field.
func Desc(field string) SortField {
	return SortField{Field: field, Desc: true}
}

// EngagementThreshold matches when any non-zero minimum is met
type EngagementThreshold struct {
	MinViews   int
	MinUpvotes int
	MinAnswers int
}

// IsZero reports whether no threshold is set.
func (t EngagementThreshold) IsZero() bool {
	return t.MinViews == 0 && t.MinUpvotes == 0 && t.MinAnswers == 0
}

// Criteria is a typed field query used by recommendation and trending tiers
// and by per-collection counts. Zero-valued fields do not constrain.
type Criteria struct {
	Terms             []string
	Filters           SearchFilters
	Difficulty        string
	Categories        []string
	TagsAny           []string
	NamesIn           []string
	ExcludeAuthorID   string
	HasAcceptedAnswer *bool
	CreatedWithin     *TimeWindow
	MinUpvotes        int
	MinViews          int
	MinAccessCount    int
	EngagementAny     *EngagementThreshold
}

// CriteriaForSearch builds the criteria matching a text search, for counts.
func CriteriaForSearch(terms []string, filters SearchFilters) Criteria {
	return Criteria{Terms: terms, Filters: filters}
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
