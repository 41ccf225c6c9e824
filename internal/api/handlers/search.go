package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/prepwise/internal/api"
	"github.com/cloo-solutions/prepwise/internal/api/middleware"
	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/service"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
}

type UsageService interface {
	RecordSelection(ctx context.Context, searchID, selectedID string, kind domain.ItemKind) error
	RecentSearches(ctx context.Context, userID string, limit int) ([]service.HistoryEntry, error)
}

type SearchHandler struct {
	svc   SearchService
	usage UsageService
}

func NewSearchHandler(svc SearchService, usage UsageService) *SearchHandler {
	return &SearchHandler{svc: svc, usage: usage}
}

type SearchRequest struct {
	Query        string   `json:"query"`
	Kinds        []string `json:"kinds,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Difficulties []string `json:"difficulties,omitempty"`
	Companies    []string `json:"companies,omitempty"`
	DateFrom     string   `json:"date_from,omitempty"`
	DateTo       string   `json:"date_to,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Offset       int      `json:"offset,omitempty"`
}

type SearchResponse struct {
	SearchID    string                  `json:"search_id"`
	Results     []domain.SearchableItem `json:"results"`
	Total       int                     `json:"total"`
	Suggestions []string                `json:"suggestions"`
	KindCounts  map[string]int          `json:"kind_counts"`
}

type SearchFeedbackRequest struct {
	SearchID   string `json:"search_id"`
	SelectedID string `json:"selected_id"`
	Kind       string `json:"kind"`
}

type HistoryResponse struct {
	Searches []service.HistoryEntry `json:"searches"`
}

func (req SearchRequest) filters() (domain.SearchFilters, error) {
	f := domain.SearchFilters{
		Tags:         req.Tags,
		Difficulties: req.Difficulties,
		Companies:    req.Companies,
	}
	for _, k := range req.Kinds {
		f.Kinds = append(f.Kinds, domain.ItemKind(k))
	}

	from, err := parseDate(req.DateFrom, false)
	if err != nil {
		return f, domain.InvalidFilterf("date_from: %v", err)
	}
	to, err := parseDate(req.DateTo, true)
	if err != nil {
		return f, domain.InvalidFilterf("date_to: %v", err)
	}
	if !from.IsZero() || !to.IsZero() {
		f.DateRange = &domain.DateRange{Start: from, End: to}
	}
	return f, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit < 0 || req.Offset < 0 {
		api.Error(w, http.StatusBadRequest, "limit and offset must not be negative")
		return
	}

	filters, err := req.filters()
	if err != nil {
		api.HandleError(w, err)
		return
	}

	output, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:   req.Query,
		Filters: filters,
		UserID:  middleware.GetUserID(r.Context()),
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	counts := make(map[string]int, len(output.KindCounts))
	for kind, n := range output.KindCounts {
		counts[string(kind)] = n
	}
	results := output.Results
	if results == nil {
		results = []domain.SearchableItem{}
	}
	suggestions := output.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	api.Success(w, http.StatusOK, SearchResponse{
		SearchID:    output.SearchID,
		Results:     results,
		Total:       output.Total,
		Suggestions: suggestions,
		KindCounts:  counts,
	})
}

func (h *SearchHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req SearchFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.usage.RecordSelection(r.Context(), req.SearchID, req.SelectedID, domain.ItemKind(req.Kind)); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid limit")
		return
	}

	entries, err := h.usage.RecentSearches(r.Context(), userID, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, HistoryResponse{Searches: entries})
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
