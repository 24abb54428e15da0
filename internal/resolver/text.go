package resolver

import (
	"regexp"
	"strconv"
	"strings"
)

var titleSplitRe = regexp.MustCompile(`\s*\|\s*|\s+-\s+`)

// splitPageTitle splits a page title of the form "episode title | show name"
// into its parts. showName is empty when the title has no separator.
func splitPageTitle(pageTitle string) (episodeTitle, showName string) {
	parts := titleSplitRe.Split(pageTitle, -1)
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
	}
	return strings.TrimSpace(pageTitle), ""
}

var wideSpaceRe = regexp.MustCompile("[\\s　]+")

func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = wideSpaceRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("“", "", "”", "", "‘", "", "’", "", `"`, "", "'", "").Replace(s)
	return strings.TrimSpace(s)
}

func bigrams(s string) map[string]struct{} {
	runes := []rune(s)
	set := make(map[string]struct{})
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

// TitlesSimilar reports whether two episode titles refer to the same episode:
// equal or containing after normalization, or character-bigram Jaccard
// similarity of at least 0.4.
func TitlesSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	t1 := normalizeTitle(a)
	t2 := normalizeTitle(b)

	if t1 == t2 {
		return true
	}
	if strings.Contains(t1, t2) || strings.Contains(t2, t1) {
		return true
	}

	b1 := bigrams(t1)
	b2 := bigrams(t2)
	if len(b1) == 0 || len(b2) == 0 {
		return false
	}

	intersection := 0
	for g := range b1 {
		if _, ok := b2[g]; ok {
			intersection++
		}
	}
	union := len(b1) + len(b2) - intersection

	return float64(intersection)/float64(union) >= 0.4
}

var (
	cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
)

// CleanText strips CDATA wrappers, common entities and markup from feed text.
func CleanText(text string) string {
	text = cdataRe.ReplaceAllString(text, "$1")
	text = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&apos;", "'",
	).Replace(text)
	text = tagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ParseDuration parses feed duration strings: "hh:mm:ss", "mm:ss" or plain
// seconds. Unparseable input yields 0.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			if len(parts) == 1 {
				return 0
			}
			n = 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	case 2:
		return nums[0]*60 + nums[1]
	default:
		return nums[0]
	}
}
