package podcast

import (
	"time"

	"github.com/lib/pq"
)

// Status is the persisted lifecycle state of a podcast job.
type Status string

const (
	StatusPending           Status = "pending"
	StatusParsing           Status = "parsing"
	StatusTranscribing      Status = "transcribing"
	StatusTranscribePolling Status = "transcribe_polling"
	StatusSummarizing       Status = "summarizing"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
)

// Step names the step function that should run next for a job. Together with
// Status it forms the dispatch key of the pipeline engine; only the pairs in
// pipeline.Engine's dispatch table are ever persisted.
type Step string

const (
	StepInit                Step = "init"
	StepSubmitTranscription Step = "submit_transcription"
	StepPollTranscription   Step = "poll_transcription"
	StepSummarize           Step = "summarize"
	StepNone                Step = ""
)

// Podcast is one submitted episode URL and its accumulated processing state.
// All mutation happens through single-row field-set updates issued by the
// pipeline engine; read endpoints never write (beyond kicking the engine).
type Podcast struct {
	ID     string `gorm:"type:text;primaryKey"`
	UserID string `gorm:"type:text;index;not null"`

	OriginalURL string `gorm:"type:text;not null"`
	Title       string `gorm:"type:text;not null;default:''"`
	Description string `gorm:"type:text;not null;default:''"`
	CoverURL    string `gorm:"type:text;not null;default:''"`
	AudioURL    string `gorm:"type:text;not null;default:''"`
	Duration    int    `gorm:"not null;default:0"`

	Transcript string `gorm:"type:text;not null;default:''"`
	Summary    string `gorm:"type:text;not null;default:''"`

	Status              Status `gorm:"type:text;index;not null;default:'pending'"`
	ProcessingStep      Step   `gorm:"type:text;not null;default:''"`
	TranscriptionTaskID string `gorm:"type:text;not null;default:''"`

	// Logs is append-only between resets; one "[RFC3339] message" line per entry.
	Logs pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	CreatedAt time.Time `gorm:"index;not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
