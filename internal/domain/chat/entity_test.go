package chat

import (
	"fmt"
	"testing"
	"time"
)

func TestLogWindow(t *testing.T) {
	var l Log
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		l.Append(NewTurn(fmt.Sprintf("turn %d", i), i%2 == 0, at))
	}

	w := l.Window(ContextWindow)
	if len(w) != 5 {
		t.Fatalf("window size = %d, want 5", len(w))
	}
	// Most recent five, in order: turns 2..6.
	for i, turn := range w {
		want := fmt.Sprintf("turn %d", i+2)
		if turn.Text != want {
			t.Fatalf("window[%d] = %q, want %q", i, turn.Text, want)
		}
	}
}

func TestLogWindowShorterThanN(t *testing.T) {
	var l Log
	l.Append(NewTurn("only", true, time.Now()))
	if got := len(l.Window(5)); got != 1 {
		t.Fatalf("window of short log = %d turns, want 1", got)
	}
	if got := len((&Log{}).Window(5)); got != 0 {
		t.Fatalf("window of empty log = %d turns, want 0", got)
	}
}

func TestLogCopiesAreIndependent(t *testing.T) {
	var l Log
	l.Append(NewTurn("a", true, time.Now()))
	turns := l.Turns()
	turns[0].Text = "mutated"
	if l.Turns()[0].Text != "a" {
		t.Fatal("Turns must return a copy")
	}
}
