package review

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	"github.com/bryanwahyu/mediscan/internal/domain/blood"
	"github.com/bryanwahyu/mediscan/internal/domain/upload"
)

type fakeClock struct{ at time.Time }

func (c *fakeClock) Now() time.Time { return c.at }

type fakeExtractor struct {
	calls int
	text  string
	err   error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeAnalyzer struct {
	calls int
	res   *analysis.Result
	errs  []error // consumed per call; nil past the end
}

func (f *fakeAnalyzer) AnalyzeText(ctx context.Context, text string) (*analysis.Result, error) {
	f.calls++
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return f.res, nil
}

type fakeBlood struct {
	calls int
	rep   *blood.Report
	err   error
}

func (f *fakeBlood) AnalyzeReport(ctx context.Context, filename string, r io.Reader, size int64) (*blood.Report, error) {
	f.calls++
	return f.rep, f.err
}

func newTestService(ex *fakeExtractor, an *fakeAnalyzer, bl *fakeBlood) *Service {
	if ex == nil {
		ex = &fakeExtractor{}
	}
	if an == nil {
		an = &fakeAnalyzer{}
	}
	if bl == nil {
		bl = &fakeBlood{}
	}
	return New(ex, an, bl, &fakeClock{at: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}, zerolog.Nop())
}

func pdfMeta(size int64) upload.FileMeta {
	return upload.FileMeta{Name: "note.pdf", ContentType: "application/pdf", Size: size}
}

func TestUploadEditRetryScenario(t *testing.T) {
	ex := &fakeExtractor{text: "Patient presents with fever."}
	an := &fakeAnalyzer{
		res:  &analysis.Result{PrimaryDiagnosis: "influenza"},
		errs: []error{&analysis.BackendError{Kind: analysis.ErrBackendRejected, Detail: "model overloaded"}},
	}
	svc := newTestService(ex, an, nil)
	id := svc.Create().ID

	sess, err := svc.UploadDocument(context.Background(), id, pdfMeta(2<<20), strings.NewReader("pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if sess.State != upload.StateExtracted || sess.EditedText != "Patient presents with fever." {
		t.Fatalf("after upload: %+v", sess)
	}

	if _, err := svc.SetText(id, "Patient presents with fever and cough."); err != nil {
		t.Fatal(err)
	}

	// First analysis fails; the session falls back to Extracted with the
	// edited text intact so the user can retry without re-uploading.
	sess, err = svc.Analyze(context.Background(), id)
	if !errors.Is(err, analysis.ErrBackendRejected) {
		t.Fatalf("want rejection, got %v", err)
	}
	if sess.State != upload.StateExtracted {
		t.Fatalf("state after failure = %s", sess.State)
	}
	if sess.EditedText != "Patient presents with fever and cough." {
		t.Fatal("edits lost on failure")
	}
	if sess.LastError != "model overloaded" {
		t.Fatalf("LastError = %q", sess.LastError)
	}

	// Retry succeeds.
	sess, err = svc.Analyze(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.State != upload.StateComplete || sess.Outcome.Kind != upload.OutcomeDocument {
		t.Fatalf("after retry: %+v", sess)
	}
	if an.calls != 2 {
		t.Fatalf("analyzer calls = %d; identical text still re-submits", an.calls)
	}
}

func TestUploadValidationRejectsBeforeExtraction(t *testing.T) {
	ex := &fakeExtractor{text: "irrelevant"}
	svc := newTestService(ex, nil, nil)
	id := svc.Create().ID

	meta := upload.FileMeta{Name: "notes.txt", ContentType: "text/plain", Size: 100}
	_, err := svc.UploadDocument(context.Background(), id, meta, strings.NewReader("x"))
	var ve *analysis.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	if ex.calls != 0 {
		t.Fatal("validation failure must not reach the extractor")
	}
	sess, _ := svc.Get(id)
	if sess.State != upload.StateIdle {
		t.Fatalf("state = %s; rejected upload must not change the session", sess.State)
	}
}

func TestFailedExtractionReturnsToIdle(t *testing.T) {
	ex := &fakeExtractor{err: &analysis.BackendError{Kind: analysis.ErrBackendUnavailable}}
	svc := newTestService(ex, nil, nil)
	id := svc.Create().ID

	sess, err := svc.UploadDocument(context.Background(), id, pdfMeta(1024), strings.NewReader("pdf"))
	if !errors.Is(err, analysis.ErrBackendUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if sess.State != upload.StateIdle || sess.FileName != "" {
		t.Fatalf("after failed extraction: %+v", sess)
	}
	if sess.LastError != "Server not responding." {
		t.Fatalf("LastError = %q", sess.LastError)
	}
}

func TestAnalyzeEmptyTextIsValidation(t *testing.T) {
	an := &fakeAnalyzer{}
	svc := newTestService(nil, an, nil)
	id := svc.Create().ID

	_, err := svc.Analyze(context.Background(), id)
	var ve *analysis.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	if an.calls != 0 {
		t.Fatal("empty text must never reach the backend")
	}
}

func TestBloodReportFlow(t *testing.T) {
	bl := &fakeBlood{rep: &blood.Report{Interpretation: "all clear"}}
	svc := newTestService(nil, nil, bl)
	id := svc.Create().ID

	meta := upload.FileMeta{Name: "cbc.pdf", ContentType: "application/pdf", Size: 1024}
	sess, err := svc.UploadBloodReport(context.Background(), id, meta, strings.NewReader("pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if sess.State != upload.StateComplete || sess.Outcome.Kind != upload.OutcomeBlood {
		t.Fatalf("after blood upload: %+v", sess)
	}
	if sess.Outcome.Blood.Interpretation != "all clear" {
		t.Fatalf("report = %+v", sess.Outcome.Blood)
	}
}

func TestBloodReportRequiresPDF(t *testing.T) {
	bl := &fakeBlood{}
	svc := newTestService(nil, nil, bl)
	id := svc.Create().ID

	meta := upload.FileMeta{Name: "cbc.png", ContentType: "image/png", Size: 1024}
	_, err := svc.UploadBloodReport(context.Background(), id, meta, strings.NewReader("x"))
	var ve *analysis.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	if bl.calls != 0 {
		t.Fatal("rejected file must not reach the analyzer")
	}
}

func TestUnknownSession(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	if _, err := svc.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := svc.SetText("nope", "text"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestSessionSweep(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc := New(&fakeExtractor{}, &fakeAnalyzer{}, &fakeBlood{}, clock, zerolog.Nop())

	stale := svc.Create().ID
	clock.at = clock.at.Add(3 * time.Hour)
	svc.Create() // triggers the sweep

	if _, err := svc.Get(stale); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("stale session should be gone, got %v", err)
	}
}
