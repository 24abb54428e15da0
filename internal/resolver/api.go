package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"podsum/internal/httpclient"
)

// EpisodeAPI probes the provider's own JSON endpoints for the episode id.
// The response shape is undocumented and has changed before, so field lookup
// is deliberately loose.
type EpisodeAPI struct {
	HTTP *httpclient.HTTPClient

	// Endpoints are format strings taking the episode id. Tests override them.
	Endpoints []string
}

var defaultEpisodeAPIEndpoints = []string{
	"https://www.xiaoyuzhoufm.com/api/episode/%s",
	"https://api.xiaoyuzhoufm.com/v1/episodes/%s",
}

func (s *EpisodeAPI) Name() string { return "episode-api" }

func (s *EpisodeAPI) TryResolve(ctx context.Context, _, episodeID string) (*EpisodeInfo, error) {
	endpoints := s.Endpoints
	if len(endpoints) == 0 {
		endpoints = defaultEpisodeAPIEndpoints
	}

	for _, ep := range endpoints {
		info, err := s.tryEndpoint(ctx, fmt.Sprintf(ep, episodeID))
		if err != nil {
			continue
		}
		if info != nil {
			return info, nil
		}
	}

	return nil, fmt.Errorf("no api endpoint returned audio for episode %s", episodeID)
}

func (s *EpisodeAPI) tryEndpoint(ctx context.Context, url string) (*EpisodeInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", "https://www.xiaoyuzhoufm.com/")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	episode := payload
	for _, key := range []string{"data", "episode"} {
		if nested, ok := payload[key].(map[string]any); ok {
			episode = nested
			break
		}
	}

	audioURL := firstString(episode, "mediaUrl", "audio", "audioUrl")
	if audioURL == "" {
		return nil, nil
	}

	title := firstString(episode, "title")
	if title == "" {
		title = "Unknown"
	}

	return &EpisodeInfo{
		Title:       title,
		Description: firstString(episode, "description"),
		CoverURL:    firstString(episode, "cover", "image"),
		AudioURL:    audioURL,
		Duration:    firstInt(episode, "duration"),
	}, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return int(v)
		}
	}
	return 0
}
