package review

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/application"
	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	"github.com/bryanwahyu/mediscan/internal/domain/blood"
	"github.com/bryanwahyu/mediscan/internal/domain/upload"
)

// ErrSessionNotFound means the session expired or never existed.
var ErrSessionNotFound = errors.New("session not found")

// sessionTTL is how long an untouched session survives before the lazy
// sweep evicts it.
const sessionTTL = 2 * time.Hour

// Service implements the upload → review → analyze workflow. Each browser
// visit gets one Session; all state is transient and dies with the session.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Extractor analysis.Extractor
	Analyzer  analysis.Analyzer
	Blood     blood.Analyzer
	Clock     application.Clock
	Log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*upload.Session
}

func New(extractor analysis.Extractor, analyzer analysis.Analyzer, bloodAnalyzer blood.Analyzer, clock application.Clock, log zerolog.Logger) *Service {
	return &Service{
		Extractor: extractor,
		Analyzer:  analyzer,
		Blood:     bloodAnalyzer,
		Clock:     clock,
		Log:       log,
		sessions:  make(map[string]*upload.Session),
	}
}

// Create starts a fresh Idle session. Creation also sweeps sessions nobody
// has touched within the TTL.
func (s *Service) Create() upload.Session {
	now := s.Clock.Now()
	sess := upload.NewSession(uuid.New().String(), now)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, old := range s.sessions {
		if now.Sub(old.UpdatedAt) > sessionTTL {
			delete(s.sessions, id)
		}
	}
	s.sessions[sess.ID] = sess
	return *sess
}

// Get returns a snapshot of the session.
func (s *Service) Get(id string) (upload.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return upload.Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// UploadDocument validates the file, extracts its text through the backend
// and leaves the session in Extracted for review. Validation failures reject
// before any state change or network call; extraction failures return the
// session to Idle with the file cleared.
func (s *Service) UploadDocument(ctx context.Context, id string, meta upload.FileMeta, r io.Reader) (upload.Session, error) {
	if err := upload.ValidateFile(meta, upload.KindDocument); err != nil {
		return upload.Session{}, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return upload.Session{}, ErrSessionNotFound
	}
	if err := sess.BeginUpload(meta.Name, s.Clock.Now()); err != nil {
		snap := *sess
		s.mu.Unlock()
		return snap, err
	}
	s.mu.Unlock()

	text, err := s.Extractor.ExtractText(ctx, meta.Name, meta.ContentType, r, meta.Size)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.Log.Warn().Err(err).Str("session", id).Msg("text extraction failed")
		sess.FailExtraction(analysis.MessageFor(err), s.Clock.Now())
		return *sess, err
	}
	if terr := sess.CompleteExtraction(text, s.Clock.Now()); terr != nil {
		// Reset raced with the upload; keep whatever state won.
		return *sess, terr
	}
	return *sess, nil
}

// SetText saves the user's edited (or directly typed) text.
func (s *Service) SetText(id, text string) (upload.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return upload.Session{}, ErrSessionNotFound
	}
	if err := sess.SetText(text, s.Clock.Now()); err != nil {
		return *sess, err
	}
	return *sess, nil
}

// Analyze submits the session's current text. Identical text submitted twice
// issues two independent backend requests; there is no caching. A failure
// returns the session to Extracted with the edited text intact.
func (s *Service) Analyze(ctx context.Context, id string) (upload.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return upload.Session{}, ErrSessionNotFound
	}
	if err := sess.BeginAnalysis(s.Clock.Now()); err != nil {
		snap := *sess
		s.mu.Unlock()
		return snap, err
	}
	text := sess.EditedText
	s.mu.Unlock()

	res, err := s.Analyzer.AnalyzeText(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.Log.Warn().Err(err).Str("session", id).Msg("analysis failed")
		sess.FailAnalysis(analysis.MessageFor(err), s.Clock.Now())
		return *sess, err
	}
	if terr := sess.CompleteAnalysis(res, s.Clock.Now()); terr != nil {
		return *sess, terr
	}
	return *sess, nil
}

// UploadBloodReport runs the blood-report flow: PDF only, no review step.
func (s *Service) UploadBloodReport(ctx context.Context, id string, meta upload.FileMeta, r io.Reader) (upload.Session, error) {
	if err := upload.ValidateFile(meta, upload.KindBlood); err != nil {
		return upload.Session{}, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return upload.Session{}, ErrSessionNotFound
	}
	if err := sess.BeginBloodAnalysis(meta.Name, s.Clock.Now()); err != nil {
		snap := *sess
		s.mu.Unlock()
		return snap, err
	}
	s.mu.Unlock()

	rep, err := s.Blood.AnalyzeReport(ctx, meta.Name, r, meta.Size)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.Log.Warn().Err(err).Str("session", id).Msg("blood report analysis failed")
		sess.FailBloodAnalysis(analysis.MessageFor(err), s.Clock.Now())
		return *sess, err
	}
	if terr := sess.CompleteBloodAnalysis(rep, s.Clock.Now()); terr != nil {
		return *sess, terr
	}
	return *sess, nil
}

// Reset returns the session to Idle and discards everything it held.
func (s *Service) Reset(id string) (upload.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return upload.Session{}, ErrSessionNotFound
	}
	sess.Reset(s.Clock.Now())
	return *sess, nil
}
