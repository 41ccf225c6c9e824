package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/prepwise/internal/api"
	"github.com/cloo-solutions/prepwise/internal/api/middleware"
	"github.com/cloo-solutions/prepwise/internal/domain"
)

type RecommendationService interface {
	Recommend(ctx context.Context, userID string, limit int) []domain.RecommendationItem
}

type TrendingService interface {
	Trending(ctx context.Context) []domain.TrendingItem
}

// FeedHandler serves the recommendation and trending feeds. Both always
// answer 200; degraded stores yield the static fallback.
type FeedHandler struct {
	recommendations RecommendationService
	trending        TrendingService
}

func NewFeedHandler(recommendations RecommendationService, trending TrendingService) *FeedHandler {
	return &FeedHandler{recommendations: recommendations, trending: trending}
}

type RecommendationsResponse struct {
	Items []domain.RecommendationItem `json:"items"`
}

type TrendingResponse struct {
	Items []domain.TrendingItem `json:"items"`
}

func (h *FeedHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid limit")
		return
	}

	items := h.recommendations.Recommend(r.Context(), middleware.GetUserID(r.Context()), limit)
	if items == nil {
		items = []domain.RecommendationItem{}
	}
	api.Success(w, http.StatusOK, RecommendationsResponse{Items: items})
}

func (h *FeedHandler) Trending(w http.ResponseWriter, r *http.Request) {
	items := h.trending.Trending(r.Context())
	if items == nil {
		items = []domain.TrendingItem{}
	}
	api.Success(w, http.StatusOK, TrendingResponse{Items: items})
}
