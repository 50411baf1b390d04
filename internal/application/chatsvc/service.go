package chatsvc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/application"
	"github.com/bryanwahyu/mediscan/internal/domain/analysis"
	"github.com/bryanwahyu/mediscan/internal/domain/chat"
)

// FallbackText is appended when a send fails. Raw network errors never enter
// the conversation.
const FallbackText = "Sorry, I couldn't process your message right now. Please try again in a moment."

// indicatorTTL is how long the "new message" dot stays lit when a reply
// lands while the panel is collapsed.
const indicatorTTL = 3 * time.Second

// conversationTTL is how long an untouched conversation survives before the
// lazy sweep evicts it.
const conversationTTL = 2 * time.Hour

// conversation holds one panel's transient state.
type conversation struct {
	log       chat.Log
	collapsed bool
	unreadAt  time.Time
	touched   time.Time
}

// Snapshot is the render view of a conversation.
type Snapshot struct {
	Turns     []chat.Turn `json:"turns"`
	Collapsed bool        `json:"collapsed"`
	Unread    bool        `json:"unread"`
}

// Service owns the chat conversations. Thread-safe.
type Service struct {
	Messenger chat.Messenger
	Clock     application.Clock
	Window    int
	Log       zerolog.Logger

	mu    sync.Mutex
	convs map[string]*conversation
}

func New(messenger chat.Messenger, clock application.Clock, window int, log zerolog.Logger) *Service {
	if window <= 0 {
		window = chat.ContextWindow
	}
	return &Service{
		Messenger: messenger,
		Clock:     clock,
		Window:    window,
		Log:       log,
		convs:     make(map[string]*conversation),
	}
}

func (s *Service) get(id string, now time.Time) *conversation {
	c, ok := s.convs[id]
	if !ok {
		c = &conversation{}
		s.convs[id] = c
	}
	c.touched = now
	return c
}

// sweep evicts conversations nobody has touched within the TTL.
func (s *Service) sweep(now time.Time) {
	for id, c := range s.convs {
		if now.Sub(c.touched) > conversationTTL {
			delete(s.convs, id)
		}
	}
}

// Send appends the user turn, forwards it with the context window (the most
// recent turns prior to this one), and appends either the reply or the
// fallback turn. Send never returns a backend error: a failed send is
// absorbed into the conversation as the fallback apology.
func (s *Service) Send(ctx context.Context, convID, text string) (chat.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Turn{}, &analysis.ValidationError{Reason: "Message cannot be empty."}
	}

	now := s.Clock.Now()
	s.mu.Lock()
	s.sweep(now)
	conv := s.get(convID, now)
	window := conv.log.Window(s.Window)
	conv.log.Append(chat.NewTurn(text, true, now))
	s.mu.Unlock()

	reply, err := s.Messenger.Send(ctx, text, window)

	s.mu.Lock()
	defer s.mu.Unlock()
	now = s.Clock.Now()
	if err != nil {
		s.Log.Warn().Err(err).Str("conversation", convID).Msg("chat send failed, using fallback")
		reply = chat.NewTurn(FallbackText, false, now)
	}
	conv.log.Append(reply)
	if conv.collapsed {
		conv.unreadAt = now
	}
	return reply, nil
}

// Open marks the panel expanded and clears the unread indicator.
func (s *Service) Open(convID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.get(convID, s.Clock.Now())
	conv.collapsed = false
	conv.unreadAt = time.Time{}
}

// Collapse marks the panel collapsed.
func (s *Service) Collapse(convID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(convID, s.Clock.Now()).collapsed = true
}

// Snapshot returns the current render view. The unread indicator clears by
// itself once its display time has passed.
func (s *Service) Snapshot(convID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Clock.Now()
	conv := s.get(convID, now)

	if !conv.unreadAt.IsZero() && now.Sub(conv.unreadAt) >= indicatorTTL {
		conv.unreadAt = time.Time{}
	}
	return Snapshot{
		Turns:     conv.log.Turns(),
		Collapsed: conv.collapsed,
		Unread:    conv.collapsed && !conv.unreadAt.IsZero(),
	}
}
