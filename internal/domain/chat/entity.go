package chat

import (
	"time"

	"github.com/google/uuid"
)

// ContextWindow is the number of most recent turns forwarded to the backend
// as conversation context. Older turns stay in the log but are not sent.
const ContextWindow = 5

// Turn is one conversational message.
type Turn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	FromUser  bool      `json:"isFromUser"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn mints a turn with a fresh ID.
func NewTurn(text string, fromUser bool, at time.Time) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Text:      text,
		FromUser:  fromUser,
		Timestamp: at,
	}
}

// Log is an append-only, insertion-ordered conversation log.
type Log struct {
	turns []Turn
}

// Append adds a turn at the end of the log.
func (l *Log) Append(t Turn) {
	l.turns = append(l.turns, t)
}

// Len returns the number of turns appended so far.
func (l *Log) Len() int { return len(l.turns) }

// Turns returns a copy of the whole log.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Window returns a copy of the most recent n turns. It never mutates the
// log; callers use it to build the outgoing request context.
func (l *Log) Window(n int) []Turn {
	if n <= 0 || len(l.turns) == 0 {
		return []Turn{}
	}
	start := len(l.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(l.turns)-start)
	copy(out, l.turns[start:])
	return out
}
