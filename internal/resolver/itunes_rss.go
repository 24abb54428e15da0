package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"podsum/internal/httpclient"

	"github.com/mmcdole/gofeed"
)

const defaultITunesSearchURL = "https://itunes.apple.com/search"

// ITunesRSS resolves an episode by locating its show feed through the iTunes
// Search API and matching the episode inside the RSS. Most reliable strategy,
// tried first.
type ITunesRSS struct {
	HTTP  *httpclient.HTTPClient
	Pages *pageFetcher

	// SearchURL overrides the iTunes endpoint; tests point it at a stub.
	SearchURL string
}

func (s *ITunesRSS) Name() string { return "itunes-rss" }

type itunesSearchResult struct {
	Results []struct {
		CollectionName string `json:"collectionName"`
		FeedURL        string `json:"feedUrl"`
		ArtworkURL600  string `json:"artworkUrl600"`
	} `json:"results"`
}

func (s *ITunesRSS) TryResolve(ctx context.Context, episodeURL, episodeID string) (*EpisodeInfo, error) {
	page, err := s.Pages.fetch(ctx, episodeURL)
	if err != nil {
		return nil, err
	}

	pageTitle := page.title()
	if pageTitle == "" {
		return nil, fmt.Errorf("could not extract episode title")
	}
	episodeTitle, showName := splitPageTitle(pageTitle)

	searchTerm := showName
	if searchTerm == "" {
		searchTerm = episodeTitle
	}

	searchBase := s.SearchURL
	if searchBase == "" {
		searchBase = defaultITunesSearchURL
	}
	searchURL := fmt.Sprintf("%s?term=%s&entity=podcast&limit=5", searchBase, url.QueryEscape(searchTerm))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes search returned %d", resp.StatusCode)
	}

	var search itunesSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, err
	}
	if len(search.Results) == 0 {
		return nil, fmt.Errorf("no itunes results for %q", searchTerm)
	}

	best := search.Results[0]
	if showName != "" {
		for _, r := range search.Results {
			if TitlesSimilar(r.CollectionName, showName) {
				best = r
				break
			}
		}
	}
	if best.FeedURL == "" {
		return nil, fmt.Errorf("itunes match has no feed url")
	}

	info, err := s.matchInFeed(ctx, best.FeedURL, episodeID, episodeTitle)
	if err != nil {
		return nil, err
	}
	if info.CoverURL == "" {
		info.CoverURL = best.ArtworkURL600
	}
	return info, nil
}

func (s *ITunesRSS) matchInFeed(ctx context.Context, feedURL, episodeID, episodeTitle string) (*EpisodeInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml,application/xml,text/xml,*/*")
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch returned %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	for _, item := range feed.Items {
		audioURL := enclosureURL(item)
		if audioURL == "" {
			continue
		}
		guidMatch := episodeID != "" && item.GUID != "" && containsFold(item.GUID, episodeID)
		if guidMatch || TitlesSimilar(item.Title, episodeTitle) {
			return feedEpisodeInfo(item, audioURL), nil
		}
	}

	return nil, fmt.Errorf("episode %q not found in feed", episodeTitle)
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func feedEpisodeInfo(item *gofeed.Item, audioURL string) *EpisodeInfo {
	description := item.Description
	var coverURL string
	var duration int

	if item.ITunesExt != nil {
		if item.ITunesExt.Summary != "" {
			description = item.ITunesExt.Summary
		}
		coverURL = item.ITunesExt.Image
		duration = ParseDuration(item.ITunesExt.Duration)
	}
	if coverURL == "" && item.Image != nil {
		coverURL = item.Image.URL
	}

	return &EpisodeInfo{
		Title:       item.Title,
		Description: CleanText(description),
		CoverURL:    coverURL,
		AudioURL:    audioURL,
		Duration:    duration,
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
