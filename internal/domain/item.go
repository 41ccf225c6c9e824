package domain

import "strings"

// ItemKind identifies the collection an item belongs to
type ItemKind string

const (
	ItemKindQuestion   ItemKind = "question"
	ItemKindExperience ItemKind = "experience"
	ItemKindMaterial   ItemKind = "material"
	ItemKindCompany    ItemKind = "company"
	ItemKindUser       ItemKind = "user"
)

// ItemKinds lists every kind in collection order. Aggregation ties are broken by this order.
var ItemKinds = []ItemKind{
	ItemKindQuestion,
	ItemKindExperience,
	ItemKindMaterial,
	ItemKindCompany,
	ItemKindUser,
}

// IsValid checks if the ItemKind is valid
func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindQuestion, ItemKindExperience, ItemKindMaterial, ItemKindCompany, ItemKindUser:
		return true
	default:
		return false
	}
}

// Collection returns the plural path segment used in deep links.
func (k ItemKind) Collection() string {
	switch k {
	case ItemKindCompany:
		return "companies"
	default:
		return string(k) + "s"
	}
}

// ItemURL builds the deep link for an item.
func ItemURL(kind ItemKind, id string) string {
	return "/" + kind.Collection() + "/" + id
}

// TrendTag explains why an item appears in the trending feed
type TrendTag string

const (
	TrendHot     TrendTag = "hot"
	TrendRising  TrendTag = "rising"
	TrendPopular TrendTag = "popular"
	TrendRecent  TrendTag = "recent"
)

// IsValid checks if the TrendTag is valid
func (t TrendTag) IsValid() bool {
	switch t {
	case TrendHot, TrendRising, TrendPopular, TrendRecent:
		return true
	default:
		return false
	}
}

// SearchableItem is the shared projection of every item kind.
// Score is only comparable within a single result set.
type SearchableItem struct {
	ID          string         `json:"id"`
	Kind        ItemKind       `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Score       float64        `json:"score"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Key identifies an item across collections.
func (i SearchableItem) Key() string {
	return string(i.Kind) + ":" + i.ID
}

// Tags returns the tags stored in metadata, if any.
func (i SearchableItem) Tags() []string {
	if i.Metadata == nil {
		return nil
	}
	tags, _ := i.Metadata["tags"].([]string)
	return tags
}

// RecommendationItem is a SearchableItem with its provenance
type RecommendationItem struct {
	SearchableItem
	Reason string `json:"reason"`
}

// TrendingItem is a SearchableItem with provenance and a trend tag
type TrendingItem struct {
	SearchableItem
	Reason string   `json:"reason"`
	Trend  TrendTag `json:"trend"`
}

const descriptionMaxChars = 200

// Summarize collapses whitespace and truncates text for item descriptions.
func Summarize(content string) string {
	if content == "" {
		return ""
	}
	clean := strings.Join(strings.Fields(content), " ")
	runes := []rune(clean)
	if len(runes) <= descriptionMaxChars {
		return clean
	}
	return string(runes[:descriptionMaxChars-3]) + "..."
}
