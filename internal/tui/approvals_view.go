package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/forumterm/internal/approval"
	"github.com/kingrea/forumterm/internal/forum"
)

type approvalsLoadedMsg struct {
	requests []forum.JoinRequest
	err      error
}

// outcomeMsg carries the queue it came from so outcomes of a replaced queue
// are drained without touching the current one.
type outcomeMsg struct {
	queue   *approval.Queue
	outcome approval.Outcome
}

type toastTickMsg struct {
	gen int
}

// toast is the undo prompt shown while a decision is still inside its window.
// Each scheduled decision has its own.
type toast struct {
	request  forum.JoinRequest
	status   forum.RequestStatus
	deadline time.Time
	gen      int
}

type approvalsView struct {
	app      *App
	ref      forum.Ref
	queue    *approval.Queue
	cursor   int
	loading  bool
	err      error
	toasts   []*toast
	toastSeq int
}

func newApprovalsView(a *App) *approvalsView {
	return &approvalsView{app: a, ref: a.config.Forum()}
}

func (v *approvalsView) Init() tea.Cmd {
	return v.load()
}

func (v *approvalsView) Close() {
	if v.queue != nil {
		v.queue.Close()
	}
}

func (v *approvalsView) load() tea.Cmd {
	v.loading = true
	ctx := v.app.ctx
	ref := v.ref
	return func() tea.Msg {
		reqs, err := v.app.backend.PendingRequests(ctx, ref)
		return approvalsLoadedMsg{requests: reqs, err: err}
	}
}

func (v *approvalsView) handler() approval.Handler {
	ref := v.ref
	return func(ctx context.Context, req forum.JoinRequest, status forum.RequestStatus) error {
		return v.app.backend.HandleRequest(ctx, ref, req.ID, status)
	}
}

func (v *approvalsView) install(reqs []forum.JoinRequest) tea.Cmd {
	opts := []approval.Option{
		approval.WithWindow(v.app.config.UndoWindow()),
		approval.WithLogger(v.app.logger),
	}
	if v.app.approvalClock != nil {
		opts = append(opts, approval.WithClock(v.app.approvalClock))
	}
	v.queue = approval.NewQueue(reqs, v.handler(), opts...)
	v.cursor = 0
	v.toasts = nil
	return listenOutcomes(v.queue)
}

func listenOutcomes(q *approval.Queue) tea.Cmd {
	ch := q.Outcomes()
	return func() tea.Msg {
		o, ok := <-ch
		if !ok {
			return nil
		}
		return outcomeMsg{queue: q, outcome: o}
	}
}

func (v *approvalsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case approvalsLoadedMsg:
		v.loading = false
		v.err = msg.err
		if msg.err != nil {
			v.app.report("Member requests unavailable", msg.err)
			return nil
		}
		if v.queue != nil {
			v.queue.Close()
		}
		return v.install(msg.requests)

	case outcomeMsg:
		if msg.queue != v.queue {
			return listenOutcomes(msg.queue)
		}
		o := msg.outcome
		v.dropToast(o.Request.ID)
		name := requestName(o.Request)
		switch o.State {
		case approval.StateCommitted:
			v.app.statusMsg = fmt.Sprintf("%s %s", name, strings.ToLower(string(o.Status)))
			v.app.logInfo("Member request %s · %s", name, o.Status)
		case approval.StateFailed:
			v.app.report(fmt.Sprintf("Could not %s %s, request restored", verb(o.Status), name), o.Err)
		case approval.StateUndone:
			v.app.statusMsg = fmt.Sprintf("Undid %s for %s", verb(o.Status), name)
		}
		v.clampCursor()
		return listenOutcomes(v.queue)

	case toastTickMsg:
		for i, t := range v.toasts {
			if t.gen != msg.gen {
				continue
			}
			if v.app.now().Before(t.deadline) {
				return v.tick(msg.gen)
			}
			v.toasts = append(v.toasts[:i], v.toasts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (v *approvalsView) dropToast(requestID string) {
	for i, t := range v.toasts {
		if t.request.ID == requestID {
			v.toasts = append(v.toasts[:i], v.toasts[i+1:]...)
			return
		}
	}
}

func (v *approvalsView) tick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return toastTickMsg{gen: gen} })
}

func (v *approvalsView) pending() []forum.JoinRequest {
	if v.queue == nil {
		return nil
	}
	return v.queue.Pending()
}

func (v *approvalsView) clampCursor() {
	n := len(v.pending())
	if v.cursor >= n {
		v.cursor = max(0, n-1)
	}
}

func (v *approvalsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.pending())-1 {
			v.cursor++
		}
	case "y", "enter":
		return v.decide(forum.RequestAccepted)
	case "x":
		return v.decide(forum.RequestRejected)
	case "u":
		return v.undo()
	case "r":
		if v.queue != nil && v.queue.Unsettled() > 0 {
			v.app.statusMsg = "Wait for pending decisions before reloading"
			return nil
		}
		return v.load()
	}
	return nil
}

func (v *approvalsView) decide(status forum.RequestStatus) tea.Cmd {
	reqs := v.pending()
	if v.cursor >= len(reqs) {
		return nil
	}
	req := reqs[v.cursor]
	if err := v.queue.Act(req.ID, status); err != nil {
		v.app.report("Decision not scheduled", err)
		return nil
	}
	v.clampCursor()
	v.toastSeq++
	t := &toast{
		request:  req,
		status:   status,
		deadline: v.app.now().Add(v.queue.Window()),
		gen:      v.toastSeq,
	}
	v.toasts = append(v.toasts, t)
	return v.tick(t.gen)
}

// undo takes back the most recent decision that still shows a toast.
func (v *approvalsView) undo() tea.Cmd {
	if len(v.toasts) == 0 {
		v.app.statusMsg = "Nothing to undo"
		return nil
	}
	t := v.toasts[len(v.toasts)-1]
	v.toasts = v.toasts[:len(v.toasts)-1]
	if !v.queue.Undo(t.request.ID) {
		v.app.statusMsg = "Too late to undo"
	}
	return nil
}

func (v *approvalsView) View() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Join requests · %s", v.ref))}
	reqs := v.pending()
	switch {
	case v.err != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("⚠ %v", v.err)))
	case v.loading && v.queue == nil:
		lines = append(lines, mutedStyle.Render("Loading requests…"))
	case len(reqs) == 0:
		lines = append(lines, mutedStyle.Render("No pending requests."))
	}
	for i, r := range reqs {
		line := fmt.Sprintf("%s · requested %s", requestName(r), r.RequestedAt.Local().Format("2006-01-02"))
		if i == v.cursor {
			lines = append(lines, selectedStyle.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	if len(v.toasts) > 0 {
		lines = append(lines, "")
	}
	for _, t := range v.toasts {
		remaining := t.deadline.Sub(v.app.now()).Round(time.Second)
		if remaining < 0 {
			remaining = 0
		}
		lines = append(lines, warnStyle.Render(fmt.Sprintf(
			"%s %s · press u to undo (%s)", gerund(t.status), requestName(t.request), remaining)))
	}
	lines = append(lines, hintStyle.Render("y accept · x reject · u undo · r reload"))
	return strings.Join(lines, "\n")
}

func requestName(r forum.JoinRequest) string {
	if r.User.Username != "" {
		return "@" + r.User.Username
	}
	if r.User.Name != "" {
		return r.User.Name
	}
	return r.ID
}

func verb(status forum.RequestStatus) string {
	if status == forum.RequestRejected {
		return "reject"
	}
	return "accept"
}

func gerund(status forum.RequestStatus) string {
	if status == forum.RequestRejected {
		return "Rejecting"
	}
	return "Accepting"
}
