package upload

import (
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	"github.com/bryanwahyu/mediscan/internal/domain/blood"
)

// State of the upload/review workflow.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateExtracted State = "extracted"
	StateAnalyzing State = "analyzing"
	StateComplete  State = "complete"
)

// ErrBusy means a call is already in flight for this session; a second
// submission is refused instead of queued.
var ErrBusy = errors.New("operation already in progress")

// ErrInvalidTransition means the requested step does not apply to the
// session's current state.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// OutcomeKind tags the active result slot.
type OutcomeKind string

const (
	OutcomeNone     OutcomeKind = "none"
	OutcomeDocument OutcomeKind = "document"
	OutcomeBlood    OutcomeKind = "blood"
)

// Outcome is the single result slot of a session: none, a document analysis,
// or a blood report. Exactly one variant is ever populated, which makes the
// "both results at once" state unrepresentable.
type Outcome struct {
	Kind     OutcomeKind      `json:"kind"`
	Document *analysis.Result `json:"document,omitempty"`
	Blood    *blood.Report    `json:"blood,omitempty"`
}

// Session is the transient state of one upload/review workflow. It is
// destroyed on reset; nothing here outlives the user's visit.
type Session struct {
	ID            string
	State         State
	FileName      string
	ExtractedText string
	EditedText    string
	Outcome       Outcome
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession starts in Idle with no result.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateIdle,
		Outcome:   Outcome{Kind: OutcomeNone},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BeginUpload moves into Uploading. Selecting a new file clears any prior
// text and result; it is refused while another call is in flight.
func (s *Session) BeginUpload(fileName string, now time.Time) error {
	if s.State == StateUploading || s.State == StateAnalyzing {
		return ErrBusy
	}
	s.FileName = fileName
	s.ExtractedText = ""
	s.EditedText = ""
	s.Outcome = Outcome{Kind: OutcomeNone}
	s.LastError = ""
	s.State = StateUploading
	s.UpdatedAt = now
	return nil
}

// CompleteExtraction stores the extracted text and opens it for editing.
func (s *Session) CompleteExtraction(text string, now time.Time) error {
	if s.State != StateUploading {
		return ErrInvalidTransition
	}
	s.ExtractedText = text
	s.EditedText = text
	s.State = StateExtracted
	s.UpdatedAt = now
	return nil
}

// FailExtraction returns to Idle with the file selection cleared. Only
// extraction failures discard the file.
func (s *Session) FailExtraction(message string, now time.Time) {
	s.FileName = ""
	s.State = StateIdle
	s.LastError = message
	s.UpdatedAt = now
}

// SetText records the user's (possibly edited) text. Allowed in Idle for
// directly typed input and in Extracted for reviewing an upload.
func (s *Session) SetText(text string, now time.Time) error {
	switch s.State {
	case StateIdle, StateExtracted:
		s.EditedText = text
		s.UpdatedAt = now
		return nil
	case StateUploading, StateAnalyzing:
		return ErrBusy
	default:
		return ErrInvalidTransition
	}
}

// BeginAnalysis moves into Analyzing. Empty text is a validation failure and
// never reaches the backend.
func (s *Session) BeginAnalysis(now time.Time) error {
	if s.State == StateAnalyzing || s.State == StateUploading {
		return ErrBusy
	}
	if s.State != StateIdle && s.State != StateExtracted {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(s.EditedText) == "" {
		return &analysis.ValidationError{Reason: "Please enter or upload some medical text first."}
	}
	s.LastError = ""
	s.State = StateAnalyzing
	s.UpdatedAt = now
	return nil
}

// CompleteAnalysis stores the document result and finishes the workflow.
func (s *Session) CompleteAnalysis(res *analysis.Result, now time.Time) error {
	if s.State != StateAnalyzing {
		return ErrInvalidTransition
	}
	s.Outcome = Outcome{Kind: OutcomeDocument, Document: res}
	s.State = StateComplete
	s.UpdatedAt = now
	return nil
}

// FailAnalysis returns to Extracted keeping the edited text, so a failed
// analysis never forces the user to re-upload or re-type.
func (s *Session) FailAnalysis(message string, now time.Time) {
	if s.State != StateAnalyzing {
		return
	}
	s.State = StateExtracted
	s.LastError = message
	s.UpdatedAt = now
}

// BeginBloodAnalysis starts the blood-report flow, which has no review step:
// the file goes straight from selection to analysis.
func (s *Session) BeginBloodAnalysis(fileName string, now time.Time) error {
	if s.State == StateUploading || s.State == StateAnalyzing {
		return ErrBusy
	}
	s.FileName = fileName
	s.ExtractedText = ""
	s.EditedText = ""
	s.Outcome = Outcome{Kind: OutcomeNone}
	s.LastError = ""
	s.State = StateAnalyzing
	s.UpdatedAt = now
	return nil
}

// CompleteBloodAnalysis stores the blood report result.
func (s *Session) CompleteBloodAnalysis(rep *blood.Report, now time.Time) error {
	if s.State != StateAnalyzing {
		return ErrInvalidTransition
	}
	s.Outcome = Outcome{Kind: OutcomeBlood, Blood: rep}
	s.State = StateComplete
	s.UpdatedAt = now
	return nil
}

// FailBloodAnalysis returns to Idle; there is no extracted text to retain.
func (s *Session) FailBloodAnalysis(message string, now time.Time) {
	if s.State != StateAnalyzing {
		return
	}
	s.FileName = ""
	s.State = StateIdle
	s.LastError = message
	s.UpdatedAt = now
}

// Reset returns to Idle from any state and destroys all transient data.
func (s *Session) Reset(now time.Time) {
	s.State = StateIdle
	s.FileName = ""
	s.ExtractedText = ""
	s.EditedText = ""
	s.Outcome = Outcome{Kind: OutcomeNone}
	s.LastError = ""
	s.UpdatedAt = now
}
