package exa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/search"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/", "test-key", nil)
	c.now = func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestSearchMergesContents(t *testing.T) {
	var searchReq SearchRequest
	var contentsReq ContentsRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/search":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&searchReq))
			_ = json.NewEncoder(w).Encode(Response{Results: []Result{
				{ID: "1", Title: "A", URL: "https://a.com", Score: ptr(0.8), Text: "snippet a"},
				{ID: "2", Title: "B", URL: "https://b.com"},
				{ID: "3", Title: "C", URL: "https://c.com", Text: "snippet c"},
			}})
		case "/contents":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&contentsReq))
			_ = json.NewEncoder(w).Encode(Response{Results: []Result{
				{URL: "https://a.com", Text: "full text a"},
				{URL: "https://b.com", Text: "full text b"},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	records, err := c.Search(context.Background(), search.Options{
		Query:          "quantum",
		ContentsLimit:  2,
		ExcludeDomains: []string{"spam.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "quantum", searchReq.Query)
	assert.Equal(t, 20, searchReq.NumResults)
	assert.Equal(t, "neural", searchReq.Type)
	assert.Equal(t, "2025-06-15", searchReq.StartPublishedDate)
	assert.Equal(t, []string{"spam.com"}, searchReq.ExcludeDomains)

	assert.Equal(t, []string{"https://a.com", "https://b.com"}, contentsReq.IDs)
	assert.True(t, contentsReq.Text)

	require.Len(t, records, 3)
	assert.Equal(t, "full text a", records[0].Text)
	assert.Equal(t, 0.8, *records[0].ExternalScore)
	assert.Equal(t, "full text b", records[1].Text)
	assert.Equal(t, "snippet c", records[2].Text)
}

func TestSearchToleratesContentsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contents" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(Response{Results: []Result{{URL: "https://a.com", Text: "snippet"}}})
	})

	records, err := c.Search(context.Background(), search.Options{Query: "q", ContentsLimit: 5})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "snippet", records[0].Text)
}

func TestSearchStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), search.Options{Query: "q"})

	var pe *research.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestSearchDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, search.Options{Query: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSearchRequiresKey(t *testing.T) {
	c := New("http://localhost", "", nil)
	_, err := c.Search(context.Background(), search.Options{Query: "q"})
	assert.Error(t, err)
}

func ptr(f float64) *float64 { return &f }
