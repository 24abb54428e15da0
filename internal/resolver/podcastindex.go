package resolver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"podsum/internal/httpclient"
)

// PodcastIndex free-tier credentials.
const (
	podcastIndexAPIKey    = "XTGTHKULSGC3RMHP2YEP"
	podcastIndexAPISecret = "$T^$JJpwn#Ry4cjbSqMvRyq$ccZJA#Lfr9K3WFkA"

	defaultPodcastIndexURL = "https://api.podcastindex.org/api/1.0"
)

// PodcastIndex resolves an episode through the podcastindex.org directory:
// search the show by name, list its episodes, match by title similarity.
type PodcastIndex struct {
	HTTP  *httpclient.HTTPClient
	Pages *pageFetcher

	APIKey    string
	APISecret string
	BaseURL   string

	// now is swapped in tests to pin the auth timestamp.
	now func() time.Time
}

func (s *PodcastIndex) Name() string { return "podcastindex" }

type podcastIndexFeed struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image"`
}

type podcastIndexEpisode struct {
	Title        string `json:"title"`
	EnclosureURL string `json:"enclosureUrl"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	FeedImage    string `json:"feedImage"`
	Duration     int    `json:"duration"`
}

func (s *PodcastIndex) TryResolve(ctx context.Context, episodeURL, _ string) (*EpisodeInfo, error) {
	page, err := s.Pages.fetch(ctx, episodeURL)
	if err != nil {
		return nil, err
	}

	episodeTitle, showName := splitPageTitle(page.title())
	if showName == "" {
		return nil, fmt.Errorf("page title has no show name to search by")
	}

	var search struct {
		Feeds []podcastIndexFeed `json:"feeds"`
	}
	q := fmt.Sprintf("%s/search/byterm?q=%s", s.baseURL(), url.QueryEscape(showName))
	if err := s.get(ctx, q, &search); err != nil {
		return nil, err
	}
	if len(search.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds found for %q", showName)
	}

	best := search.Feeds[0]
	for _, f := range search.Feeds {
		if TitlesSimilar(f.Title, showName) {
			best = f
			break
		}
	}

	var episodes struct {
		Items []podcastIndexEpisode `json:"items"`
	}
	eq := fmt.Sprintf("%s/episodes/byfeedid?id=%d&max=100", s.baseURL(), best.ID)
	if err := s.get(ctx, eq, &episodes); err != nil {
		return nil, err
	}

	for _, ep := range episodes.Items {
		if !TitlesSimilar(ep.Title, episodeTitle) {
			continue
		}
		cover := ep.Image
		if cover == "" {
			cover = ep.FeedImage
		}
		if cover == "" {
			cover = best.Image
		}
		return &EpisodeInfo{
			Title:       ep.Title,
			Description: CleanText(ep.Description),
			CoverURL:    cover,
			AudioURL:    ep.EnclosureURL,
			Duration:    ep.Duration,
		}, nil
	}

	return nil, fmt.Errorf("episode %q not found in podcastindex feed %d", episodeTitle, best.ID)
}

func (s *PodcastIndex) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return defaultPodcastIndexURL
}

// get issues an authenticated GET. PodcastIndex wants a fresh
// sha1(key+secret+unix-time) Authorization per request.
func (s *PodcastIndex) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	nowFn := s.now
	if nowFn == nil {
		nowFn = time.Now
	}
	authDate := strconv.FormatInt(nowFn().Unix(), 10)
	sum := sha1.Sum([]byte(s.APIKey + s.APISecret + authDate))

	req.Header.Set("X-Auth-Key", s.APIKey)
	req.Header.Set("X-Auth-Date", authDate)
	req.Header.Set("Authorization", hex.EncodeToString(sum[:]))

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("podcastindex returned %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
