// Package summarize turns a raw transcript into a structured markdown
// article via a chat-completions LLM endpoint. Long transcripts are split
// into segments, each segment is reduced to its key points, and the partial
// summaries are merged in one final call.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultMaxSegmentChars is roughly 6k tokens, comfortably inside the model's
// context window together with the prompt.
const DefaultMaxSegmentChars = 12000

const systemPrompt = "You are a professional podcast content analyst. You extract key information and produce structured summary articles in Markdown."

const segmentSystemPrompt = "You are a podcast content analysis assistant. Extract the key information and main points from the input text."

const articleFormat = `## Key Points
(3-5 core points, in concise and forceful language)

## Summary
(a detailed multi-paragraph summary of the main discussion and insights)

## Takeaways
(key takeaways and actionable advice, as an ordered list)

## Who Should Listen
(describe the audience this episode suits)`

type Client struct {
	APIKey  string
	BaseURL string
	Model   string

	// MaxSegmentChars caps one LLM call's transcript share; above it the
	// chunk-then-merge path kicks in. Zero means DefaultMaxSegmentChars.
	MaxSegmentChars int

	HTTPClient *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Model:      model,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) maxSegmentChars() int {
	if c.MaxSegmentChars > 0 {
		return c.MaxSegmentChars
	}
	return DefaultMaxSegmentChars
}

// Summarize produces the four-section markdown article for a transcript.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	if len(transcript) > c.maxSegmentChars() {
		return c.summarizeLong(ctx, transcript)
	}
	return c.chat(ctx, systemPrompt, articlePrompt(transcript))
}

func (c *Client) summarizeLong(ctx context.Context, transcript string) (string, error) {
	segments := SplitSegments(transcript, c.maxSegmentChars())

	partials := make([]string, 0, len(segments))
	for i, seg := range segments {
		prompt := fmt.Sprintf("This is part %d/%d of a podcast transcript. Extract the key content and main points of this part:\n\n%s", i+1, len(segments), seg)
		partial, err := c.chat(ctx, segmentSystemPrompt, prompt)
		if err != nil {
			log.Printf("summarize: segment %d/%d failed: %v", i+1, len(segments), err)
			continue
		}
		partials = append(partials, partial)
	}

	if len(partials) == 0 {
		return "", errors.New("no segment produced a usable summary")
	}

	combined := strings.Join(partials, "\n\n---\n\n")
	mergePrompt := fmt.Sprintf("Below are per-segment key-point summaries of one podcast episode. Merge them into a single complete structured summary article.\n\n%s\n\nOutput in the following format:\n\n%s", combined, articleFormat)
	return c.chat(ctx, systemPrompt, mergePrompt)
}

func articlePrompt(transcript string) string {
	return fmt.Sprintf("Summarize the following podcast content into a structured summary article:\n\n%s\n\nOutput in the following format:\n\n%s\n\nKeep a professional but readable style. Use Markdown.", transcript, articleFormat)
}

// SplitSegments splits text into line-respecting chunks of at most maxChars.
// A single line longer than maxChars becomes its own segment rather than
// being cut mid-line.
func SplitSegments(text string, maxChars int) []string {
	var segments []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > maxChars {
			segments = append(segments, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}

	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm api returned %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("llm response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", errors.New("llm returned no content")
	}
	return cr.Choices[0].Message.Content, nil
}
