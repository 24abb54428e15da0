package pipeline

import (
	"regexp"

	"podsum/internal/podcast"
)

// Stage is the collapsed, client-facing view of a job's status: the two
// transcription statuses present as one "transcribing" stage.
type Stage string

const (
	StagePending      Stage = "pending"
	StageParsing      Stage = "parsing"
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// Status is the progress triple shown to polling clients.
type Status struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

const genericFailureMessage = "processing failed, please retry"

var logPrefixRe = regexp.MustCompile(`^\[.*?\]\s*`)

// Project derives the client-facing status from persisted state. Pure: same
// (status, logs) always yields the same triple. Failed jobs surface the most
// recent log line, stripped of its timestamp prefix, as the message.
func Project(status podcast.Status, logs []string) Status {
	switch status {
	case podcast.StatusPending:
		return Status{Stage: StagePending, Progress: 5, Message: "waiting to be processed..."}
	case podcast.StatusParsing:
		return Status{Stage: StageParsing, Progress: 15, Message: "resolving episode info..."}
	case podcast.StatusTranscribing:
		return Status{Stage: StageTranscribing, Progress: 30, Message: "submitting transcription task..."}
	case podcast.StatusTranscribePolling:
		return Status{Stage: StageTranscribing, Progress: 50, Message: "transcribing audio (this can take a few minutes)..."}
	case podcast.StatusSummarizing:
		return Status{Stage: StageSummarizing, Progress: 80, Message: "generating AI summary..."}
	case podcast.StatusCompleted:
		return Status{Stage: StageCompleted, Progress: 100, Message: "summary ready"}
	case podcast.StatusFailed:
		return Status{Stage: StageFailed, Progress: 0, Message: failureMessage(logs)}
	default:
		return Status{Stage: StagePending, Progress: 0, Message: "waiting to be processed..."}
	}
}

// Pollable reports whether a status read should kick another engine advance
// as a side effect. Execution is poll-driven: these are the states a client
// poll is expected to re-drive.
func Pollable(status podcast.Status) bool {
	return status == podcast.StatusPending || status == podcast.StatusTranscribePolling
}

func failureMessage(logs []string) string {
	if len(logs) == 0 {
		return genericFailureMessage
	}
	msg := logPrefixRe.ReplaceAllString(logs[len(logs)-1], "")
	if msg == "" {
		return genericFailureMessage
	}
	return msg
}
