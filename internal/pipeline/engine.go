// Package pipeline drives a podcast job through resolve, transcribe and
// summarize. There is no background scheduler: Advance runs at most one step
// (plus synchronous chaining) and is triggered at submission time, by status
// polls and by reprocess. Overlapping triggers for the same job are tolerated
// with at-least-once step semantics; every write is a single-row field-set,
// so a racing duplicate resolves as last-write-wins.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podsum/internal/podcast"
	"podsum/internal/resolver"
	"podsum/internal/transcribe"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("podcast not found")
	ErrNotFailed = errors.New("only failed podcasts can be reprocessed")
)

// Resolver turns an episode URL into canonical metadata.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*resolver.EpisodeInfo, error)
}

// Transcriber submits audio for transcription and polls the resulting task.
// Query absorbs transient errors into StateRunning by contract.
type Transcriber interface {
	Submit(ctx context.Context, audioURL string) (string, error)
	Query(ctx context.Context, taskID string) transcribe.Result
}

// Summarizer reduces a transcript to a structured markdown article.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type Engine struct {
	Store       podcast.Store
	Resolver    Resolver
	Transcriber Transcriber
	Summarizer  Summarizer
}

// Advance executes the next applicable step function for a job, if any.
// Unknown ids and jobs whose (status, step) pair names no step are no-ops.
// Step errors are absorbed at this boundary: the job is marked failed with a
// log line, never surfaced to the caller.
func (e *Engine) Advance(ctx context.Context, id string) error {
	p, err := e.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, podcast.ErrNotFound) {
			return nil
		}
		return err
	}

	var stepErr error
	switch {
	case p.Status == podcast.StatusPending && p.ProcessingStep == podcast.StepInit:
		stepErr = e.stepResolve(ctx, p)
	case p.Status == podcast.StatusTranscribing && p.ProcessingStep == podcast.StepSubmitTranscription:
		stepErr = e.stepSubmitTranscription(ctx, p)
	case p.Status == podcast.StatusTranscribePolling && p.ProcessingStep == podcast.StepPollTranscription:
		stepErr = e.stepPollTranscription(ctx, p)
	case p.Status == podcast.StatusSummarizing && p.ProcessingStep == podcast.StepSummarize:
		stepErr = e.stepSummarize(ctx, p)
	default:
		return nil
	}

	if stepErr != nil {
		e.fail(ctx, p.ID, fmt.Sprintf("processing error: %v", stepErr))
	}
	return nil
}

// Reprocess resets a failed job back to the start of the pipeline. The caller
// is expected to kick one Advance afterwards.
func (e *Engine) Reprocess(ctx context.Context, id string) error {
	p, err := e.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, podcast.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if p.Status != podcast.StatusFailed {
		return ErrNotFailed
	}

	return e.Store.Update(ctx, id, map[string]any{
		"status":                podcast.StatusPending,
		"processing_step":       podcast.StepInit,
		"logs":                  emptyLogs(),
		"transcription_task_id": "",
	})
}

func emptyLogs() pq.StringArray { return pq.StringArray{} }

func (e *Engine) stepResolve(ctx context.Context, p *podcast.Podcast) error {
	if err := e.Store.Update(ctx, p.ID, map[string]any{"status": podcast.StatusParsing}); err != nil {
		return err
	}
	e.log(ctx, p.ID, "resolving episode info...")

	info, err := e.Resolver.Resolve(ctx, p.OriginalURL)
	if err != nil || info == nil {
		e.fail(ctx, p.ID, "could not resolve episode page, check that the link is valid")
		return nil
	}

	e.log(ctx, p.ID, "resolved: "+info.Title)

	if info.AudioURL == "" {
		// Keep whatever metadata came back; an unplayable episode still
		// deserves a recognizable card in the list.
		e.log(ctx, p.ID, "could not find an audio url")
		return e.Store.Update(ctx, p.ID, map[string]any{
			"status":      podcast.StatusFailed,
			"title":       info.Title,
			"description": info.Description,
			"cover_url":   info.CoverURL,
		})
	}

	if err := e.Store.Update(ctx, p.ID, map[string]any{
		"title":           info.Title,
		"description":     info.Description,
		"cover_url":       info.CoverURL,
		"audio_url":       info.AudioURL,
		"duration":        info.Duration,
		"status":          podcast.StatusTranscribing,
		"processing_step": podcast.StepSubmitTranscription,
	}); err != nil {
		return err
	}

	// Chain straight into submission to save the client one poll round trip.
	p.AudioURL = info.AudioURL
	return e.stepSubmitTranscription(ctx, p)
}

func (e *Engine) stepSubmitTranscription(ctx context.Context, p *podcast.Podcast) error {
	e.log(ctx, p.ID, "submitting transcription task...")

	taskID, err := e.Transcriber.Submit(ctx, p.AudioURL)
	if err != nil || taskID == "" {
		e.fail(ctx, p.ID, "failed to submit transcription task")
		return nil
	}

	e.log(ctx, p.ID, "transcription task submitted, task id: "+taskID)
	return e.Store.Update(ctx, p.ID, map[string]any{
		"transcription_task_id": taskID,
		"status":                podcast.StatusTranscribePolling,
		"processing_step":       podcast.StepPollTranscription,
	})
}

func (e *Engine) stepPollTranscription(ctx context.Context, p *podcast.Podcast) error {
	if p.TranscriptionTaskID == "" {
		e.fail(ctx, p.ID, "no transcription task id")
		return nil
	}

	res := e.Transcriber.Query(ctx, p.TranscriptionTaskID)
	switch res.State {
	case transcribe.StateSuccess:
		e.log(ctx, p.ID, fmt.Sprintf("transcription complete, %d chars", len(res.Text)))
		if err := e.Store.Update(ctx, p.ID, map[string]any{
			"transcript":      res.Text,
			"status":          podcast.StatusSummarizing,
			"processing_step": podcast.StepSummarize,
		}); err != nil {
			return err
		}

		// Chain straight into summarization.
		p.Transcript = res.Text
		return e.stepSummarize(ctx, p)

	case transcribe.StateFailed:
		e.fail(ctx, p.ID, "audio transcription failed")
		return nil

	default:
		// Still running: leave state and logs untouched, the next status
		// poll triggers another check.
		return nil
	}
}

func (e *Engine) stepSummarize(ctx context.Context, p *podcast.Podcast) error {
	if p.Transcript == "" {
		e.fail(ctx, p.ID, "no transcript available for summarization")
		return nil
	}

	e.log(ctx, p.ID, "generating summary...")

	summary, err := e.Summarizer.Summarize(ctx, p.Transcript)
	if err != nil {
		e.fail(ctx, p.ID, "summary generation failed")
		return nil
	}

	e.log(ctx, p.ID, "summary complete")
	return e.Store.Update(ctx, p.ID, map[string]any{
		"summary": summary,
		"status":  podcast.StatusCompleted,
	})
}

func (e *Engine) fail(ctx context.Context, id, msg string) {
	e.log(ctx, id, msg)
	_ = e.Store.Update(ctx, id, map[string]any{"status": podcast.StatusFailed})
}

func (e *Engine) log(ctx context.Context, id, msg string) {
	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), msg)
	_ = e.Store.AppendLog(ctx, id, line)
}
