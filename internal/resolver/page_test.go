package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podsum/internal/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const episodePageHTML = `<!DOCTYPE html>
<html>
<head>
<title>Ep 42: Storage Engines | The DB Show</title>
<meta property="og:title" content="Ep 42: Storage Engines | The DB Show" />
<meta property="og:description" content="A deep dive into LSM trees." />
<meta property="og:image" content="https://cdn.example.com/cover.jpg" />
<script>
window.__DATA__ = {"episode":{"mediaUrl":"https://media.xyzcdn.net/ep42.mp3","duration":5400}};
</script>
</head>
<body><h1>Ep 42</h1></body>
</html>`

func newPageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
}

func browserFetcher() *pageFetcher {
	return &pageFetcher{HTTP: httpclient.NewClient(httpclient.BrowserClient)}
}

func TestPageScrapeExtractsEverything(t *testing.T) {
	srv := newPageServer(t, episodePageHTML)
	defer srv.Close()

	s := &PageScrape{Pages: browserFetcher()}
	info, err := s.TryResolve(context.Background(), srv.URL, "abc123")
	require.NoError(t, err)

	assert.Equal(t, "Ep 42: Storage Engines | The DB Show", info.Title)
	assert.Equal(t, "A deep dive into LSM trees.", info.Description)
	assert.Equal(t, "https://cdn.example.com/cover.jpg", info.CoverURL)
	assert.Equal(t, "https://media.xyzcdn.net/ep42.mp3", info.AudioURL)
	assert.Equal(t, 5400, info.Duration)
}

func TestPageScrapeWithoutAudioStillReturnsMetadata(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="Ep 1" />
<meta property="og:description" content="No player here." />
</head><body></body></html>`
	srv := newPageServer(t, html)
	defer srv.Close()

	s := &PageScrape{Pages: browserFetcher()}
	info, err := s.TryResolve(context.Background(), srv.URL, "abc123")
	require.NoError(t, err)

	assert.Equal(t, "Ep 1", info.Title)
	assert.Empty(t, info.AudioURL)
}

func TestPageScrapeFallsBackToTitleTag(t *testing.T) {
	srv := newPageServer(t, `<html><head><title> Plain Title </title></head><body></body></html>`)
	defer srv.Close()

	s := &PageScrape{Pages: browserFetcher()}
	info, err := s.TryResolve(context.Background(), srv.URL, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Plain Title", info.Title)
}

func TestPageFetcherRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := browserFetcher().fetch(context.Background(), srv.URL)
	require.Error(t, err)
}
