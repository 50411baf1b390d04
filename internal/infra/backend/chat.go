package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/mediscan/internal/domain/chat"
)

// Send implements chat.Messenger. Any failure, transport or otherwise, is
// folded into chat.ErrUnavailable; the panel decides what the user sees.
func (c *Client) Send(ctx context.Context, text string, window []chat.Turn) (chat.Turn, error) {
	payload := chatRequest{Text: text, Context: contextItems(window)}

	var cr chatResponse
	if err := c.postJSON(ctx, "/chat/message", payload, &cr); err != nil {
		return chat.Turn{}, fmt.Errorf("%w: %v", chat.ErrUnavailable, err)
	}
	if failed(cr.Success) || cr.reply() == "" {
		return chat.Turn{}, fmt.Errorf("%w: empty reply", chat.ErrUnavailable)
	}

	at := time.Now()
	if ts, err := time.Parse(time.RFC3339, cr.Timestamp); err == nil {
		at = ts
	}
	return chat.NewTurn(cr.reply(), false, at), nil
}

func contextItems(window []chat.Turn) []chatContextItem {
	items := make([]chatContextItem, 0, len(window))
	for _, t := range window {
		role := "assistant"
		if t.FromUser {
			role = "user"
		}
		items = append(items, chatContextItem{Role: role, Content: t.Text})
	}
	return items
}
