package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bryanwahyu/mediscan/internal/domain/chat"
)

func TestChatSend(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/message" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Text != "what does E11.9 mean?" {
			t.Errorf("text = %q", req.Text)
		}
		if len(req.Context) != 2 || req.Context[0].Role != "user" || req.Context[1].Role != "assistant" {
			t.Errorf("context = %+v", req.Context)
		}
		w.Write([]byte(`{"success":true,"message":"E11.9 is type 2 diabetes without complications.","timestamp":"2025-03-01T10:00:00Z"}`))
	}))

	window := []chat.Turn{
		{Text: "hi", FromUser: true},
		{Text: "hello, how can I help?", FromUser: false},
	}
	turn, err := c.Send(context.Background(), "what does E11.9 mean?", window)
	if err != nil {
		t.Fatal(err)
	}
	if turn.FromUser {
		t.Fatal("reply must be an assistant turn")
	}
	if turn.Text != "E11.9 is type 2 diabetes without complications." {
		t.Fatalf("text = %q", turn.Text)
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !turn.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v", turn.Timestamp)
	}
}

func TestChatSendLegacyResponseField(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"response":"old deployments answer here"}`))
	}))

	turn, err := c.Send(context.Background(), "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if turn.Text != "old deployments answer here" {
		t.Fatalf("text = %q", turn.Text)
	}
}

func TestChatSendFailuresAreUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"http error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"success false": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false}`))
		},
		"empty reply": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"message":""}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			c := testClient(t, handler)
			_, err := c.Send(context.Background(), "hi", nil)
			if !errors.Is(err, chat.ErrUnavailable) {
				t.Fatalf("want ErrUnavailable, got %v", err)
			}
		})
	}
}
