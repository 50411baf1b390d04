package upload

import (
	"errors"
	"testing"
	"time"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	"github.com/bryanwahyu/mediscan/internal/domain/blood"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestDocumentWorkflowHappyPath(t *testing.T) {
	s := NewSession("s1", t0)
	if s.State != StateIdle {
		t.Fatalf("new session state = %s", s.State)
	}

	if err := s.BeginUpload("note.pdf", t0); err != nil {
		t.Fatal(err)
	}
	if s.State != StateUploading {
		t.Fatalf("state = %s", s.State)
	}

	if err := s.CompleteExtraction("patient text", t0); err != nil {
		t.Fatal(err)
	}
	if s.State != StateExtracted || s.ExtractedText != "patient text" || s.EditedText != "patient text" {
		t.Fatalf("after extraction: %+v", s)
	}

	if err := s.SetText("edited text", t0); err != nil {
		t.Fatal(err)
	}
	if s.ExtractedText != "patient text" {
		t.Fatal("editing must not overwrite the extracted original")
	}

	if err := s.BeginAnalysis(t0); err != nil {
		t.Fatal(err)
	}
	res := &analysis.Result{PrimaryDiagnosis: "flu"}
	if err := s.CompleteAnalysis(res, t0); err != nil {
		t.Fatal(err)
	}
	if s.State != StateComplete || s.Outcome.Kind != OutcomeDocument || s.Outcome.Document != res {
		t.Fatalf("after analysis: %+v", s)
	}
}

func TestBeginUploadRefusedWhileBusy(t *testing.T) {
	s := NewSession("s1", t0)
	if err := s.BeginUpload("a.pdf", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginUpload("b.pdf", t0); !errors.Is(err, ErrBusy) {
		t.Fatalf("second upload while uploading: %v", err)
	}
	if s.FileName != "a.pdf" {
		t.Fatal("refused upload must not change the session")
	}
}

func TestBeginUploadClearsPriorResult(t *testing.T) {
	s := NewSession("s1", t0)
	s.EditedText = "typed"
	if err := s.BeginAnalysis(t0); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteAnalysis(&analysis.Result{}, t0); err != nil {
		t.Fatal(err)
	}

	if err := s.BeginUpload("next.pdf", t0); err != nil {
		t.Fatal(err)
	}
	if s.Outcome.Kind != OutcomeNone || s.EditedText != "" || s.ExtractedText != "" {
		t.Fatalf("new upload must clear prior text and result: %+v", s)
	}
}

func TestFailExtractionReturnsToIdleAndClearsFile(t *testing.T) {
	s := NewSession("s1", t0)
	if err := s.BeginUpload("bad.pdf", t0); err != nil {
		t.Fatal(err)
	}
	s.FailExtraction("Server not responding.", t0)
	if s.State != StateIdle || s.FileName != "" {
		t.Fatalf("after failed extraction: %+v", s)
	}
	if s.LastError != "Server not responding." {
		t.Fatalf("LastError = %q", s.LastError)
	}
}

func TestBeginAnalysisEmptyText(t *testing.T) {
	s := NewSession("s1", t0)
	s.EditedText = "   \n\t "
	err := s.BeginAnalysis(t0)
	var ve *analysis.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("whitespace-only text should be a validation error, got %v", err)
	}
	if s.State != StateIdle {
		t.Fatal("failed validation must not change state")
	}
}

func TestFailAnalysisKeepsEditedText(t *testing.T) {
	s := NewSession("s1", t0)
	if err := s.BeginUpload("note.pdf", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteExtraction("original", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.SetText("carefully edited", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginAnalysis(t0); err != nil {
		t.Fatal(err)
	}

	s.FailAnalysis("Analysis failed. Please try again.", t0)
	if s.State != StateExtracted {
		t.Fatalf("state = %s, want extracted for retry", s.State)
	}
	if s.EditedText != "carefully edited" {
		t.Fatal("failed analysis must not lose the user's edits")
	}
}

func TestBloodWorkflow(t *testing.T) {
	s := NewSession("s1", t0)
	if err := s.BeginBloodAnalysis("cbc.pdf", t0); err != nil {
		t.Fatal(err)
	}
	if s.State != StateAnalyzing {
		t.Fatalf("blood flow skips review, state = %s", s.State)
	}
	rep := &blood.Report{}
	if err := s.CompleteBloodAnalysis(rep, t0); err != nil {
		t.Fatal(err)
	}
	if s.Outcome.Kind != OutcomeBlood || s.Outcome.Blood != rep {
		t.Fatalf("outcome = %+v", s.Outcome)
	}
}

func TestFailBloodAnalysisReturnsToIdle(t *testing.T) {
	s := NewSession("s1", t0)
	if err := s.BeginBloodAnalysis("cbc.pdf", t0); err != nil {
		t.Fatal(err)
	}
	s.FailBloodAnalysis("backend rejected", t0)
	if s.State != StateIdle || s.FileName != "" {
		t.Fatalf("after failed blood analysis: %+v", s)
	}
}

func TestOutcomeIsExclusive(t *testing.T) {
	s := NewSession("s1", t0)
	s.EditedText = "text"
	if err := s.BeginAnalysis(t0); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteAnalysis(&analysis.Result{}, t0); err != nil {
		t.Fatal(err)
	}

	// Switching to the blood flow replaces the document result entirely.
	if err := s.BeginBloodAnalysis("cbc.pdf", t0); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteBloodAnalysis(&blood.Report{}, t0); err != nil {
		t.Fatal(err)
	}
	if s.Outcome.Kind != OutcomeBlood || s.Outcome.Document != nil {
		t.Fatalf("document result must be gone: %+v", s.Outcome)
	}
}

func TestResetFromEveryState(t *testing.T) {
	build := map[string]func(*Session){
		"idle":      func(s *Session) {},
		"uploading": func(s *Session) { s.BeginUpload("a.pdf", t0) },
		"extracted": func(s *Session) {
			s.BeginUpload("a.pdf", t0)
			s.CompleteExtraction("text", t0)
		},
		"analyzing": func(s *Session) {
			s.EditedText = "text"
			s.BeginAnalysis(t0)
		},
		"complete": func(s *Session) {
			s.EditedText = "text"
			s.BeginAnalysis(t0)
			s.CompleteAnalysis(&analysis.Result{}, t0)
		},
	}
	for name, fn := range build {
		t.Run(name, func(t *testing.T) {
			s := NewSession("s1", t0)
			fn(s)
			s.Reset(t0)
			if s.State != StateIdle || s.FileName != "" || s.EditedText != "" || s.Outcome.Kind != OutcomeNone || s.LastError != "" {
				t.Fatalf("reset left residue: %+v", s)
			}
		})
	}
}
