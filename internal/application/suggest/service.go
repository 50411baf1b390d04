package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
)

// lookupTimeout bounds the background ICD search; suggestions are
// best-effort and must never wedge.
const lookupTimeout = 10 * time.Second

// Service provides live ICD-10 suggestions while the user types. Keystrokes
// call Suggest; one lookup fires after the quiet period, and a completion is
// stored only if it is still the latest scheduled one.
type Service struct {
	Suggester analysis.Suggester
	Delay     time.Duration
	Log       zerolog.Logger

	mu     sync.Mutex
	states map[string]*state
}

type state struct {
	deb    *Debouncer
	latest []analysis.ICDCode
}

func New(suggester analysis.Suggester, delay time.Duration, log zerolog.Logger) *Service {
	return &Service{
		Suggester: suggester,
		Delay:     delay,
		Log:       log,
		states:    make(map[string]*state),
	}
}

func (s *Service) state(key string) *state {
	st, ok := s.states[key]
	if !ok {
		st = &state{deb: NewDebouncer(s.Delay), latest: []analysis.ICDCode{}}
		s.states[key] = st
	}
	return st
}

// Suggest records a keystroke for key and returns the most recent accepted
// suggestions. An empty query cancels any pending lookup and clears results.
func (s *Service) Suggest(key, query string) []analysis.ICDCode {
	s.mu.Lock()
	st := s.state(key)
	if strings.TrimSpace(query) == "" {
		st.deb.Cancel()
		st.latest = []analysis.ICDCode{}
		out := st.latest
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	st.deb.Schedule(func(seq uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		codes, err := s.Suggester.SuggestICD(ctx, query)
		if err != nil {
			s.Log.Debug().Err(err).Str("query", query).Msg("icd suggestion lookup failed")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !st.deb.Latest(seq) {
			// A newer keystroke superseded this lookup; drop it.
			return
		}
		st.latest = codes
	})

	return s.Results(key)
}

// Results returns the last accepted suggestions for key.
func (s *Service) Results(key string) []analysis.ICDCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(key)
	out := make([]analysis.ICDCode, len(st.latest))
	copy(out, st.latest)
	return out
}
