package resolver

import (
	"context"
	"errors"
	"log"
	"regexp"

	"podsum/internal/httpclient"
)

// ErrUnresolvable is returned when no strategy produced any episode metadata.
var ErrUnresolvable = errors.New("could not resolve episode")

var episodeIDRe = regexp.MustCompile(`episode/(\w+)`)

// ExtractEpisodeID pulls the episode id out of an episode page URL.
func ExtractEpisodeID(url string) (string, error) {
	m := episodeIDRe.FindStringSubmatch(url)
	if m == nil {
		return "", errors.New("no episode id in url")
	}
	return m[1], nil
}

// EpisodeInfo is the canonical episode metadata a strategy produces.
// AudioURL is the only field the pipeline hard-requires; the rest degrade to
// empty/zero without failing a job.
type EpisodeInfo struct {
	Title       string
	Description string
	CoverURL    string
	AudioURL    string
	Duration    int // seconds
}

// Strategy is one way of turning an episode URL into EpisodeInfo.
// Returning (nil, err) or (nil, nil) both mean "try the next one".
type Strategy interface {
	Name() string
	TryResolve(ctx context.Context, url, episodeID string) (*EpisodeInfo, error)
}

// Resolver tries strategies in a fixed priority order; the first result with
// a non-empty audio URL wins.
type Resolver struct {
	strategies []Strategy
}

// New builds the default strategy chain, most reliable first.
func New(httpc *httpclient.HTTPClient, apic *httpclient.HTTPClient) *Resolver {
	pages := &pageFetcher{HTTP: httpc}
	return &Resolver{
		strategies: []Strategy{
			&ITunesRSS{HTTP: apic, Pages: pages},
			&PodcastIndex{HTTP: apic, Pages: pages, APIKey: podcastIndexAPIKey, APISecret: podcastIndexAPISecret},
			&EpisodeAPI{HTTP: apic},
			&PageScrape{Pages: pages},
		},
	}
}

// NewWithStrategies is used by tests and alternative wirings.
func NewWithStrategies(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve runs the strategy chain. If no strategy yields a playable audio URL
// but one of them produced page metadata, that partial info is returned so the
// caller can keep title/description/cover on the failed job.
func (r *Resolver) Resolve(ctx context.Context, url string) (*EpisodeInfo, error) {
	episodeID, err := ExtractEpisodeID(url)
	if err != nil {
		return nil, err
	}

	var partial *EpisodeInfo
	for _, s := range r.strategies {
		info, err := s.TryResolve(ctx, url, episodeID)
		if err != nil {
			log.Printf("resolver: %s failed: %v", s.Name(), err)
			continue
		}
		if info == nil {
			continue
		}
		if info.AudioURL != "" {
			return info, nil
		}
		if partial == nil {
			partial = info
		}
	}

	if partial != nil {
		return partial, nil
	}
	return nil, ErrUnresolvable
}
