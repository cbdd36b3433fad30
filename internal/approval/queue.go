// Package approval implements the member-approval page's deferred decisions:
// accepting or rejecting a join request hides it immediately, and the real
// request is only sent once the undo window has elapsed.
package approval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/forum"
)

// DefaultWindow is how long a decision stays undoable.
const DefaultWindow = 3 * time.Second

var (
	ErrUnknownRequest = errors.New("approval: request is not pending")
	ErrInvalidStatus  = errors.New("approval: status must be ACCEPTED or REJECTED")
	ErrClosed         = errors.New("approval: queue closed")
)

// State is where a request sits in the Idle → Pending → Committed|Undone machine.
type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
	StateUndone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateUndone:
		return "undone"
	case StateFailed:
		return "failed"
	}
	return "idle"
}

// Handler sends the decision to the server.
type Handler func(ctx context.Context, req forum.JoinRequest, status forum.RequestStatus) error

// Outcome is emitted once a decision settles.
type Outcome struct {
	Request forum.JoinRequest
	Status  forum.RequestStatus
	State   State
	Err     error
}

type action struct {
	req    forum.JoinRequest
	status forum.RequestStatus
	timer  Timer
	fired  bool
}

// Queue holds one forum's pending join requests and the decisions in flight.
type Queue struct {
	handler Handler
	clock   Clock
	window  time.Duration
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	pending  []forum.JoinRequest
	order    map[string]int
	actions  map[string]*action
	states   map[string]State
	outcomes chan Outcome
	closed   bool
}

// Option customizes a Queue.
type Option func(*Queue)

// WithClock swaps the timer source, for tests.
func WithClock(c Clock) Option {
	return func(q *Queue) {
		if c != nil {
			q.clock = c
		}
	}
}

// WithWindow sets the undo window.
func WithWindow(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.window = d
		}
	}
}

// WithLogger attaches a diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// NewQueue starts a queue over the given pending requests.
func NewQueue(requests []forum.JoinRequest, handler Handler, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		handler:  handler,
		clock:    realClock{},
		window:   DefaultWindow,
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		order:    make(map[string]int, len(requests)),
		actions:  map[string]*action{},
		states:   map[string]State{},
		outcomes: make(chan Outcome, 64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	q.pending = make([]forum.JoinRequest, 0, len(requests))
	for i, req := range requests {
		if _, dup := q.order[req.ID]; dup || req.ID == "" {
			continue
		}
		q.order[req.ID] = i
		q.pending = append(q.pending, req)
	}
	return q
}

// Window is the configured undo window.
func (q *Queue) Window() time.Duration { return q.window }

// Pending returns the requests currently visible in the list.
func (q *Queue) Pending() []forum.JoinRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]forum.JoinRequest, len(q.pending))
	copy(out, q.pending)
	return out
}

// State reports where a request is in its lifecycle.
func (q *Queue) State(id string) State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.states[id]
}

// InFlight lists the requests whose undo window is still open.
func (q *Queue) InFlight() []forum.JoinRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []forum.JoinRequest
	for _, a := range q.actions {
		if !a.fired {
			out = append(out, a.req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return q.order[out[i].ID] < q.order[out[j].ID] })
	return out
}

// Unsettled counts decisions with no outcome yet, whether still inside
// their window or already being sent.
func (q *Queue) Unsettled() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Outcomes delivers settled decisions. It is closed by Close.
func (q *Queue) Outcomes() <-chan Outcome { return q.outcomes }

// Act hides a request and schedules the decision to be sent when the undo
// window elapses.
func (q *Queue) Act(id string, status forum.RequestStatus) error {
	if !status.Resolved() {
		return ErrInvalidStatus
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	idx := q.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	req := q.pending[idx]
	q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
	a := &action{req: req, status: status}
	q.actions[id] = a
	q.states[id] = StatePending
	q.wg.Add(1)
	a.timer = q.clock.AfterFunc(q.window, func() { q.fire(id, a) })
	q.logger.Debug("approval scheduled",
		zap.String("request", id),
		zap.String("status", string(status)),
		zap.Duration("window", q.window))
	return nil
}

// Undo restores a request whose decision has not been sent yet. It reports
// false once the window has elapsed and the request is on its way.
func (q *Queue) Undo(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.actions[id]
	if !ok || a.fired {
		return false
	}
	delete(q.actions, id)
	if a.timer.Stop() {
		q.wg.Done()
	}
	q.restoreLocked(a.req)
	q.states[id] = StateUndone
	q.emitLocked(Outcome{Request: a.req, Status: a.status, State: StateUndone})
	return true
}

func (q *Queue) fire(id string, a *action) {
	defer q.wg.Done()
	q.mu.Lock()
	if q.actions[id] != a || q.closed {
		q.mu.Unlock()
		return
	}
	a.fired = true
	q.mu.Unlock()

	err := q.handler(q.ctx, a.req, a.status)

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.actions, id)
	if err != nil {
		q.logger.Warn("approval failed",
			zap.String("request", id),
			zap.String("status", string(a.status)),
			zap.Error(err))
		q.restoreLocked(a.req)
		q.states[id] = StateFailed
		q.emitLocked(Outcome{Request: a.req, Status: a.status, State: StateFailed, Err: err})
		return
	}
	q.states[id] = StateCommitted
	q.emitLocked(Outcome{Request: a.req, Status: a.status, State: StateCommitted})
}

// Close cancels in-flight requests, drops decisions still inside their
// window without sending them and closes Outcomes.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for id, a := range q.actions {
		if a.fired {
			continue
		}
		if a.timer.Stop() {
			q.wg.Done()
		}
		delete(q.actions, id)
		q.restoreLocked(a.req)
		q.states[id] = StateIdle
	}
	q.mu.Unlock()
	q.cancel()
	q.wg.Wait()
	q.mu.Lock()
	close(q.outcomes)
	q.mu.Unlock()
}

func (q *Queue) indexLocked(id string) int {
	for i, req := range q.pending {
		if req.ID == id {
			return i
		}
	}
	return -1
}

// restoreLocked puts req back at its original position relative to the
// requests still visible.
func (q *Queue) restoreLocked(req forum.JoinRequest) {
	if q.indexLocked(req.ID) >= 0 {
		return
	}
	rank := q.order[req.ID]
	pos := sort.Search(len(q.pending), func(i int) bool {
		return q.order[q.pending[i].ID] > rank
	})
	q.pending = append(q.pending, forum.JoinRequest{})
	copy(q.pending[pos+1:], q.pending[pos:])
	q.pending[pos] = req
}

func (q *Queue) emitLocked(o Outcome) {
	if q.closed && o.State != StateCommitted && o.State != StateFailed {
		return
	}
	select {
	case q.outcomes <- o:
	default:
		q.logger.Warn("approval outcome dropped", zap.String("request", o.Request.ID))
	}
}
