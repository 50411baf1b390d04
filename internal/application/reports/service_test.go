package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	domain "github.com/bryanwahyu/mediscan/internal/domain/reports"
)

type fakeClock struct{ at time.Time }

func (c *fakeClock) Now() time.Time { return c.at }

type fakeGenerator struct {
	pdf []byte
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, b domain.Bundle) ([]byte, error) {
	return f.pdf, f.err
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Put(ctx context.Context, key string, pdf []byte) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return "http://store/" + key, nil
}

func testBundle() domain.Bundle {
	return domain.Bundle{Analysis: &analysis.Result{PrimaryDiagnosis: "flu"}}
}

func TestGenerateNamesFileByDate(t *testing.T) {
	svc := &Service{
		Generator: &fakeGenerator{pdf: []byte("%PDF-1.7")},
		Clock:     &fakeClock{at: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		Log:       zerolog.Nop(),
	}

	pdf, filename, err := svc.Generate(context.Background(), testBundle())
	if err != nil {
		t.Fatal(err)
	}
	if string(pdf) != "%PDF-1.7" {
		t.Fatalf("pdf = %q", pdf)
	}
	if filename != "medical-report-2025-03-01.pdf" {
		t.Fatalf("filename = %q", filename)
	}
}

func TestGenerateArchivesCopy(t *testing.T) {
	ar := &fakeArchive{}
	svc := &Service{
		Generator: &fakeGenerator{pdf: []byte("%PDF-1.7")},
		Archive:   ar,
		Clock:     &fakeClock{at: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		Log:       zerolog.Nop(),
	}

	if _, _, err := svc.Generate(context.Background(), testBundle()); err != nil {
		t.Fatal(err)
	}
	if len(ar.keys) != 1 || !strings.HasPrefix(ar.keys[0], "reports/2025/03/01/") {
		t.Fatalf("archive keys = %v", ar.keys)
	}
}

func TestArchiveFailureDoesNotBlockDownload(t *testing.T) {
	svc := &Service{
		Generator: &fakeGenerator{pdf: []byte("%PDF-1.7")},
		Archive:   &fakeArchive{err: errors.New("bucket gone")},
		Clock:     &fakeClock{at: time.Now()},
		Log:       zerolog.Nop(),
	}

	pdf, _, err := svc.Generate(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("archive failure must be swallowed, got %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("download must still be served")
	}
}

func TestGeneratorFailureSurfaces(t *testing.T) {
	wantErr := &analysis.BackendError{Kind: analysis.ErrBackendUnavailable}
	svc := &Service{
		Generator: &fakeGenerator{err: wantErr},
		Clock:     &fakeClock{at: time.Now()},
		Log:       zerolog.Nop(),
	}

	_, _, err := svc.Generate(context.Background(), testBundle())
	if !errors.Is(err, analysis.ErrBackendUnavailable) {
		t.Fatalf("got %v", err)
	}
}
