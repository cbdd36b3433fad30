// Package profanity debounces profanity checks while the user types.
package profanity

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a check runs.
const DefaultDelay = 500 * time.Millisecond

// Checker asks the server whether text is profane.
type Checker func(ctx context.Context, text string) (bool, error)

// Verdict is the result for the latest submitted text.
type Verdict struct {
	Text    string
	Profane bool
	Err     error
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer runs the checker once typing has paused. Only the verdict for
// the most recent text is delivered.
type Debouncer struct {
	check   Checker
	deliver func(Verdict)
	delay   time.Duration
	clock   Clock

	mu      sync.Mutex
	gen     uint64
	timer   Timer
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

type Option func(*Debouncer)

func WithDelay(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.delay = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(db *Debouncer) {
		if c != nil {
			db.clock = c
		}
	}
}

func NewDebouncer(check Checker, deliver func(Verdict), opts ...Option) *Debouncer {
	db := &Debouncer{check: check, deliver: deliver, delay: DefaultDelay, clock: realClock{}}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Submit replaces any pending or running check with one for text.
func (db *Debouncer) Submit(text string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.stopped {
		return
	}
	db.resetLocked()
	db.gen++
	gen := db.gen
	db.wg.Add(1)
	db.timer = db.clock.AfterFunc(db.delay, func() { db.run(gen, text) })
}

func (db *Debouncer) resetLocked() {
	if db.timer != nil && db.timer.Stop() {
		db.wg.Done()
	}
	db.timer = nil
	if db.cancel != nil {
		db.cancel()
		db.cancel = nil
	}
}

func (db *Debouncer) run(gen uint64, text string) {
	defer db.wg.Done()
	db.mu.Lock()
	if db.stopped || gen != db.gen {
		db.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	db.cancel = cancel
	db.mu.Unlock()

	profane, err := db.check(ctx, text)
	cancel()

	db.mu.Lock()
	current := !db.stopped && gen == db.gen
	db.mu.Unlock()
	if current && db.deliver != nil {
		db.deliver(Verdict{Text: text, Profane: profane, Err: err})
	}
}

// Stop cancels the pending timer and any running check, then waits for
// callbacks to return. Later Submits are ignored.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	db.stopped = true
	db.resetLocked()
	db.mu.Unlock()
	db.wg.Wait()
}
