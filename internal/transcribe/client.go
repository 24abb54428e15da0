// Package transcribe wraps the volcengine speech-to-text batch API.
// Submission and polling are separate calls so the pipeline can persist the
// task id between them and poll across requests.
package transcribe

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

type State string

const (
	StateSuccess State = "SUCCESS"
	StateFailed  State = "FAILED"
	StateRunning State = "RUNNING"
)

// Result is one poll outcome. Text is set only on success.
type Result struct {
	State State
	Text  string
}

type Client struct {
	AppID       string
	AccessToken string
	SecretKey   string
	BaseURL     string

	HTTPClient *http.Client
}

func NewClient(appID, accessToken, secretKey, baseURL string) *Client {
	return &Client{
		AppID:       appID,
		AccessToken: accessToken,
		SecretKey:   secretKey,
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type submitResponse struct {
	TaskID string `json:"task_id"`
	ID     string `json:"id"`
}

// Submit registers the audio URL for transcription and returns the vendor's
// task id.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	body := map[string]any{
		"appid":              c.AppID,
		"secret_key":         c.SecretKey,
		"audio_url":          audioURL,
		"language":           "zh-CN",
		"enable_punctuation": true,
		"enable_word_time":   false,
	}

	resp, err := c.post(ctx, "/submit", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription submit returned %d", resp.StatusCode)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("transcription submit: %w", err)
	}

	taskID := sr.TaskID
	if taskID == "" {
		taskID = sr.ID
	}
	if taskID == "" {
		return "", errors.New("transcription submit returned no task id")
	}
	return taskID, nil
}

type queryResponse struct {
	State      string `json:"state"`
	Utterances []struct {
		Text string `json:"text"`
	} `json:"utterances"`
}

// Query polls the task. Network, HTTP and decode errors all map to
// StateRunning: only an explicit vendor FAILED terminates a job, transient
// hiccups must not.
func (c *Client) Query(ctx context.Context, taskID string) Result {
	body := map[string]any{
		"appid":      c.AppID,
		"secret_key": c.SecretKey,
		"task_id":    taskID,
	}

	resp, err := c.post(ctx, "/query", body)
	if err != nil {
		log.Printf("transcribe: query error: %v", err)
		return Result{State: StateRunning}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("transcribe: query returned %d", resp.StatusCode)
		return Result{State: StateRunning}
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		log.Printf("transcribe: query decode error: %v", err)
		return Result{State: StateRunning}
	}

	switch qr.State {
	case string(StateSuccess):
		lines := make([]string, 0, len(qr.Utterances))
		for _, u := range qr.Utterances {
			lines = append(lines, u.Text)
		}
		return Result{State: StateSuccess, Text: strings.Join(lines, "\n")}
	case string(StateFailed):
		return Result{State: StateFailed}
	default:
		return Result{State: StateRunning}
	}
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("X-App-Id", c.AppID)

	return c.HTTPClient.Do(req)
}
