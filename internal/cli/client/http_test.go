package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_SendsUserAndDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.Header.Get(userIDHeader))
		assert.Equal(t, "/recommendations", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"items":[{"id":"m1","kind":"material","title":"Arrays"}]}}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL+"/", "u1")
	resp, err := api.Get(context.Background(), "/recommendations", url.Values{"limit": {"3"}})
	require.NoError(t, err)

	var feed itemsResponse
	require.NoError(t, decodeData(resp, &feed))
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "Arrays", feed.Items[0].Title)
}

func TestAPIClient_AnonymousOmitsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header[userIDHeader]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	_, err := NewAPIClientWithConfig(srv.URL, "").Get(context.Background(), "/trending", nil)
	require.NoError(t, err)
}

func TestAPIClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid filter: unknown kind \"podcast\"",
			"code":  "VALIDATION_ERROR",
		})
	}))
	defer srv.Close()

	_, err := NewAPIClientWithConfig(srv.URL, "").Post(context.Background(), "/search", SearchRequest{Kinds: []string{"podcast"}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "unknown kind")
}

func TestAPIClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAPIClientWithConfig(srv.URL, "").Get(context.Background(), "/trending", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestAPIClient_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := NewAPIClientWithConfig(srv.URL, "").Post(context.Background(), "/search/feedback", SearchFeedbackRequest{})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}
