package chat

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the chat backend failed to produce a reply, for
// whatever underlying reason. The panel never shows this to the user; it
// appends the fallback turn instead.
var ErrUnavailable = errors.New("chat unavailable")

// Messenger port: sends one message plus its context window and returns the
// assistant's reply turn.
type Messenger interface {
	Send(ctx context.Context, text string, window []Turn) (Turn, error)
}
