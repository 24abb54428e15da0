package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podsum/internal/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
<title>The DB Show</title>
<item>
  <title>Ep 41: Indexes</title>
  <guid>https://show.example.com/ep41</guid>
  <enclosure url="https://cdn.example.com/ep41.mp3" type="audio/mpeg" length="1"/>
</item>
<item>
  <title>Ep 42: Storage Engines</title>
  <guid>https://www.xiaoyuzhoufm.com/episode/abc123DEF</guid>
  <description>About LSM trees.</description>
  <itunes:duration>01:30:00</itunes:duration>
  <itunes:image href="https://cdn.example.com/ep42.jpg"/>
  <enclosure url="https://cdn.example.com/ep42.mp3" type="audio/mpeg" length="1"/>
</item>
</channel>
</rss>`

// newITunesStub wires one server that plays episode page, iTunes search and
// RSS feed, so the whole strategy runs against local fixtures.
func newITunesStub(t *testing.T) (*httptest.Server, *ITunesRSS) {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server
	srv = httptest.NewServer(mux)

	mux.HandleFunc("/episode/abc123DEF", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Ep 42: Storage Engines | The DB Show" /></head></html>`)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "The DB Show", r.URL.Query().Get("term"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"collectionName": "Some Other Show", "feedUrl": srv.URL + "/other.xml"},
				{"collectionName": "The DB Show", "feedUrl": srv.URL + "/feed.xml", "artworkUrl600": "https://cdn.example.com/art600.jpg"},
			},
		})
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeedXML)
	})

	s := &ITunesRSS{
		HTTP:      httpclient.NewClient(httpclient.APIClient),
		Pages:     browserFetcher(),
		SearchURL: srv.URL + "/search",
	}
	return srv, s
}

func TestITunesRSSResolvesByGUID(t *testing.T) {
	srv, s := newITunesStub(t)
	defer srv.Close()

	info, err := s.TryResolve(context.Background(), srv.URL+"/episode/abc123DEF", "abc123DEF")
	require.NoError(t, err)

	assert.Equal(t, "Ep 42: Storage Engines", info.Title)
	assert.Equal(t, "https://cdn.example.com/ep42.mp3", info.AudioURL)
	assert.Equal(t, "https://cdn.example.com/ep42.jpg", info.CoverURL)
	assert.Equal(t, 5400, info.Duration)
	assert.Equal(t, "About LSM trees.", info.Description)
}

func TestITunesRSSEpisodeNotInFeed(t *testing.T) {
	srv, s := newITunesStub(t)
	defer srv.Close()

	mux := http.NewServeMux()
	pageSrv := httptest.NewServer(mux)
	defer pageSrv.Close()
	mux.HandleFunc("/episode/zzz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Totally Different Topic Episode | The DB Show" /></head></html>`)
	})

	_, err := s.TryResolve(context.Background(), pageSrv.URL+"/episode/zzz", "zzz")
	require.Error(t, err)
}

func TestITunesRSSNoTitleOnPage(t *testing.T) {
	srv, s := newITunesStub(t)
	defer srv.Close()

	blank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head></head><body></body></html>`)
	}))
	defer blank.Close()

	_, err := s.TryResolve(context.Background(), blank.URL, "abc123DEF")
	require.Error(t, err)
}
