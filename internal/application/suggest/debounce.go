package suggest

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid input into one lookup after a quiet period.
// Each Schedule supersedes any pending one, and the sequence number it
// returns lets callers discard completions that are no longer the latest —
// a late response for abandoned input must lose the race.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	seq   uint64
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arms the timer for fn, cancelling any pending call. fn receives
// the sequence assigned to this schedule.
func (d *Debouncer) Schedule(fn func(seq uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { fn(seq) })
	return seq
}

// Latest reports whether seq is still the newest scheduled sequence.
func (d *Debouncer) Latest(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq == d.seq
}

// Cancel stops any pending call and invalidates outstanding sequences.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
