package resolver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"podsum/internal/httpclient"

	"github.com/PuerkitoBio/goquery"
)

// episodePage is a fetched episode page: parsed DOM plus the raw HTML, which
// the scrape strategy still needs for embedded-JSON regex matching.
type episodePage struct {
	doc *goquery.Document
	raw string
}

type pageFetcher struct {
	HTTP *httpclient.HTTPClient
}

func (f *pageFetcher) fetch(ctx context.Context, url string) (*episodePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("episode page returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &episodePage{doc: doc, raw: string(body)}, nil
}

// meta returns the content of an og:/meta property tag, either attribute order.
func (p *episodePage) meta(property string) string {
	content, _ := p.doc.Find(fmt.Sprintf("meta[property=%q]", property)).Attr("content")
	return strings.TrimSpace(content)
}

// title is the episode page title: og:title, falling back to <title>.
func (p *episodePage) title() string {
	if t := p.meta("og:title"); t != "" {
		return t
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

var (
	audioURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"mediaUrl"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`"audioUrl"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`"audio"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`"(https://[^"]*\.xiaoyuzhoufm\.com[^"]*\.mp3[^"]*)"`),
		regexp.MustCompile(`"(https://media\.xyzcdn\.net[^"]*\.mp3[^"]*)"`),
	}
	durationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"duration"\s*:\s*(\d+)`),
		regexp.MustCompile(`"durationInSeconds"\s*:\s*(\d+)`),
	}
)

func (p *episodePage) audioURL() string {
	for _, re := range audioURLPatterns {
		if m := re.FindStringSubmatch(p.raw); m != nil {
			return m[1]
		}
	}
	return ""
}

func (p *episodePage) duration() int {
	for _, re := range durationPatterns {
		if m := re.FindStringSubmatch(p.raw); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n
		}
	}
	return 0
}

// PageScrape is the last-resort strategy: read the episode page itself and
// pull whatever the embedded player state exposes.
type PageScrape struct {
	Pages *pageFetcher
}

func (s *PageScrape) Name() string { return "page-scrape" }

func (s *PageScrape) TryResolve(ctx context.Context, url, _ string) (*EpisodeInfo, error) {
	page, err := s.Pages.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	title := page.title()
	if title == "" {
		title = "Unknown"
	}

	return &EpisodeInfo{
		Title:       title,
		Description: page.meta("og:description"),
		CoverURL:    page.meta("og:image"),
		AudioURL:    page.audioURL(),
		Duration:    page.duration(),
	}, nil
}
