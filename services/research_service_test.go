package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cowriter/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResearchService(t *testing.T, handler http.HandlerFunc) (*ResearchService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Search
	cfg.APIKey = "tvly-test"
	cfg.BaseURL = srv.URL
	return NewResearchService(cfg, 5*time.Second, nil), srv
}

func TestResearchService_Search(t *testing.T) {
	var got tavilyRequest
	svc, _ := newTestResearchService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"query":"q","results":[
			{"title":"2024 Scholars","url":"https://example.edu/scholars-2024","content":"Meet the class","score":0.92},
			{"title":"News","url":"https://example.edu/news","content":"Campus news","score":0.41}]}`)
	})

	results, err := svc.Search(context.Background(), "Gates Scholarship 2024 winners")

	require.NoError(t, err)
	assert.Equal(t, "Gates Scholarship 2024 winners", got.Query)
	assert.Equal(t, 5, got.MaxResults)
	require.Len(t, results, 2)
	assert.Equal(t, "https://example.edu/scholars-2024", results[0].URL)
	assert.InDelta(t, 0.92, results[0].Score, 1e-9)
}

func TestResearchService_SearchErrors(t *testing.T) {
	svc, _ := newTestResearchService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":{"error":"Unauthorized"}}`)
	})

	_, err := svc.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.Contains(t, err.Error(), "401")

	_, err = NewResearchService(config.DefaultConfig().Search, time.Second, nil).Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestResearchService_Fetch(t *testing.T) {
	svc, srv := newTestResearchService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			assert.Equal(t, scraperUserAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, `<html><head><title>Scholars</title><style>p{color:red}</style></head>
<body><nav>Home About</nav><h1>Meet the 2024 Scholars</h1>
<p>Ada Lovelace,   MIT</p><script>var tracking = 1;</script><p>Alan Turing, Princeton</p>
<footer>Contact us</footer></body></html>`)
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = io.WriteString(w, "Winners:\n  Grace Hopper\n")
		default:
			http.NotFound(w, r)
		}
	})

	text, err := svc.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "Scholars Meet the 2024 Scholars Ada Lovelace, MIT Alan Turing, Princeton", text)

	text, err = svc.Fetch(context.Background(), srv.URL+"/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "Winners: Grace Hopper", text)

	_, err = svc.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestResearchService_FetchTruncatesToPageLimit(t *testing.T) {
	svc, srv := newTestResearchService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<p>"+strings.Repeat("é", 9000)+"</p>")
	})

	text, err := svc.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, 8000, len([]rune(text)))
}

func TestPageText_SkipsNonContent(t *testing.T) {
	text, err := PageText([]byte(`<div><noscript>Enable JS</noscript><svg><text>logo</text></svg>
		<ul><li>Maya Thompson</li><li>Daniel Okafor</li></ul></div>`))

	require.NoError(t, err)
	assert.Equal(t, "Maya Thompson Daniel Okafor", text)
}
