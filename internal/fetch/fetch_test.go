package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>T</title><script>var x = 1;</script></head>
<body>
<nav>Home | About</nav>
<article>
  <h1>Quantum computing in 2025</h1>
  <p>Researchers   reported a 40% gain.</p>
  <p>The study was published today.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestExtractTextPrefersArticle(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Quantum computing in 2025 Researchers reported a 40% gain. The study was published today.", text)
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "var x")
}

func TestExtractTextFallsBackToBody(t *testing.T) {
	text, err := ExtractText(strings.NewReader(`<html><body><div>Just a div</div></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Just a div", text)
}

func TestFetcherText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := New()

	text, err := f.Text(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, text, "40% gain")

	_, err = f.Text(context.Background(), srv.URL+"/missing")
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)

	_, err = f.Text(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}

func TestFetcherTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("á", 50) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := New()
	f.maxChars = 10

	text, err := f.Text(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("á", 10), text)
}
