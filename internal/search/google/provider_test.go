package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/search"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) Text(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if url == "https://site.com/1" {
		return "", errors.New("blocked")
	}
	return "page text for " + url, nil
}

func newTestProvider(t *testing.T, handler http.HandlerFunc, fetcher TextFetcher) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(context.Background(), "key", "cx-id", fetcher, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return p
}

func TestSearchPagesAndFetches(t *testing.T) {
	var queries []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, q.Get("q"))
		assert.Equal(t, "cx-id", q.Get("cx"))
		assert.Equal(t, "d15", q.Get("dateRestrict"))

		start, _ := strconv.Atoi(q.Get("start"))
		num, _ := strconv.Atoi(q.Get("num"))

		items := []map[string]any{}
		for i := 0; i < num && start+i <= 12; i++ {
			n := start + i - 1
			item := map[string]any{
				"title":   "Result " + strconv.Itoa(n),
				"link":    "https://site.com/" + strconv.Itoa(n),
				"snippet": "snippet " + strconv.Itoa(n),
			}
			if n == 0 {
				item["pagemap"] = map[string]any{
					"metatags": []map[string]string{{"article:published_time": "2025-06-20T08:00:00Z"}},
				}
			}
			items = append(items, item)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}

	fetcher := &fakeFetcher{}
	p := newTestProvider(t, handler, fetcher)

	records, err := p.Search(context.Background(), search.Options{
		Query:          "quantum",
		NumResults:     20,
		ContentsLimit:  2,
		IncludeDomains: []string{"a.com", "b.com"},
		ExcludeDomains: []string{"spam.com"},
	})
	require.NoError(t, err)

	require.Len(t, records, 12, "second page is short so paging stops")
	assert.Equal(t, "quantum (site:a.com OR site:b.com) -site:spam.com", queries[0])
	assert.Equal(t, "2025-06-20T08:00:00Z", records[0].PublishedDate)

	assert.Equal(t, "page text for https://site.com/0", records[0].Text)
	assert.Equal(t, "snippet 1", records[1].Text, "fetch failure keeps snippet")
	assert.Equal(t, "snippet 2", records[2].Text, "beyond the contents limit")
	assert.Len(t, fetcher.calls, 2)
}

func TestSearchStopsAtResultCap(t *testing.T) {
	var pages int
	handler := func(w http.ResponseWriter, r *http.Request) {
		pages++
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		num, _ := strconv.Atoi(r.URL.Query().Get("num"))
		if start+num-1 > 100 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid argument"}}`))
			return
		}

		items := make([]map[string]any, num)
		for i := range items {
			items[i] = map[string]any{"title": "r", "link": "https://site.com/" + strconv.Itoa(start+i)}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}

	p := newTestProvider(t, handler, nil)

	records, err := p.Search(context.Background(), search.Options{Query: "quantum", NumResults: 150})
	require.NoError(t, err)

	assert.Len(t, records, 100)
	assert.Equal(t, 10, pages)
}

func TestSearchAPIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}, nil)

	_, err := p.Search(context.Background(), search.Options{Query: "q"})

	var pe *research.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusForbidden, pe.StatusCode)
}

func TestNewValidatesCredentials(t *testing.T) {
	_, err := New(context.Background(), "", "cx", nil, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), "key", "", nil, nil)
	assert.Error(t, err)
}

func TestPublishedDate(t *testing.T) {
	assert.Equal(t, "", publishedDate(nil))
	assert.Equal(t, "", publishedDate([]byte(`not json`)))
	assert.Equal(t, "2025-01-02", publishedDate([]byte(`{"metatags":[{"date":"2025-01-02"}]}`)))
}
