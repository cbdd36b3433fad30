package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/forumterm/internal/debates"
	"github.com/kingrea/forumterm/internal/forum"
)

var columnWidths = []int{36, 5, 7, 6, 10, 9}

type boardRefreshedMsg struct {
	errs map[forum.Collection]error
}

type mutationDoneMsg struct {
	req    debates.Request
	result debates.Result
	err    error
}

type boardView struct {
	app     *App
	board   *debates.Board
	fetcher *debates.Fetcher
	mutator *debates.Mutator
	table   table.Model
	items   []forum.Debate

	reason    textinput.Model
	rejecting string

	points   *pointsPanel
	composer *composerPanel
}

func newBoardView(a *App, pageSize int) *boardView {
	board := debates.NewBoard(a.config.Forum())
	fetcher := debates.NewFetcher(a.backend, pageSize,
		debates.WithLogger(a.logger),
		debates.WithJournal(a.logbook))
	mutator := debates.NewMutator(a.backend, board, fetcher, a.config.Project.Viewer.UserID, a.logger, a.logbook)

	cols := make([]table.Column, len(debates.Columns))
	for i, title := range debates.Columns {
		cols[i] = table.Column{Title: title, Width: columnWidths[i]}
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(12))

	reason := textinput.New()
	reason.Placeholder = "Reason for rejection"
	reason.CharLimit = 280

	v := &boardView{
		app:     a,
		board:   board,
		fetcher: fetcher,
		mutator: mutator,
		table:   t,
		reason:  reason,
	}
	v.composer = newComposerPanel(a)
	return v
}

func (v *boardView) Init() tea.Cmd {
	return v.refresh()
}

func (v *boardView) Close() {
	v.composer.Close()
}

func (v *boardView) capturing() bool {
	return v.rejecting != "" || v.composer.open || v.points != nil
}

func (v *boardView) resize(width, height int) {
	v.table.SetHeight(max(5, height-18))
	v.reason.Width = max(20, width-20)
	v.composer.input.Width = max(20, width-20)
}

func (v *boardView) setMembers(members []forum.UserRef) {
	v.composer.setMembers(members)
}

// refresh refetches the named collections, or all of them.
func (v *boardView) refresh(cs ...forum.Collection) tea.Cmd {
	ctx := v.app.ctx
	return func() tea.Msg {
		return boardRefreshedMsg{errs: v.fetcher.Refresh(ctx, v.board, cs...)}
	}
}

func (v *boardView) apply(req debates.Request) tea.Cmd {
	if err := req.Validate(); err != nil {
		v.app.statusMsg = err.Error()
		return nil
	}
	ctx := v.app.ctx
	return func() tea.Msg {
		res, err := v.mutator.Apply(ctx, req)
		return mutationDoneMsg{req: req, result: res, err: err}
	}
}

func (v *boardView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case boardRefreshedMsg:
		v.sync()
		if len(msg.errs) > 0 {
			v.app.statusMsg = fmt.Sprintf("%d collection(s) failed to load", len(msg.errs))
		}
	case mutationDoneMsg:
		v.sync()
		switch {
		case msg.err == nil:
			v.app.statusMsg = fmt.Sprintf("%s done", msg.req.Action)
		case errors.Is(msg.err, debates.ErrUnchanged):
			v.app.statusMsg = "Vote unchanged"
		default:
			v.app.statusMsg = fmt.Sprintf("%s failed: %v", msg.req.Action, msg.err)
		}
	}
	var cmds []tea.Cmd
	if cmd := v.points.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := v.composer.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// sync copies the active collection into the table.
func (v *boardView) sync() {
	snap := v.board.View()
	v.items = snap.Items
	raw := debates.Rows(snap.Items, snap.Collection, v.app.now())
	rows := make([]table.Row, len(raw))
	for i, r := range raw {
		rows[i] = table.Row(r)
	}
	v.table.SetRows(rows)
	if c := v.table.Cursor(); c >= len(rows) {
		v.table.SetCursor(max(0, len(rows)-1))
	}
}

func (v *boardView) selected() (forum.Debate, bool) {
	idx := v.table.Cursor()
	if idx < 0 || idx >= len(v.items) {
		return forum.Debate{}, false
	}
	return v.items[idx], true
}

func (v *boardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.rejecting != "" {
		return v.handleReasonKey(msg)
	}
	if v.composer.open {
		return v.composer.handleKey(msg)
	}
	if v.points != nil {
		if msg.String() == "esc" {
			v.points = nil
			return nil
		}
		return v.points.handleKey(msg)
	}

	key := msg.String()
	switch key {
	case "tab":
		v.board.Cycle(1)
		v.sync()
		return nil
	case "shift+tab":
		v.board.Cycle(-1)
		v.sync()
		return nil
	case "1", "2", "3", "4", "5":
		idx := int(key[0] - '1')
		if idx < len(forum.Collections) {
			_ = v.board.Select(forum.Collections[idx])
			v.sync()
		}
		return nil
	case "n", "right":
		if c, changed := v.board.NextPage(); changed {
			return v.refresh(c)
		}
		return nil
	case "p", "left":
		if c, changed := v.board.PrevPage(); changed {
			return v.refresh(c)
		}
		return nil
	case "r":
		v.app.statusMsg = "Refreshing debates..."
		return v.refresh()
	}

	d, ok := v.selected()
	switch key {
	case "+", "-", "0", "a", "y", "x", "enter", "c":
		if !ok {
			v.app.statusMsg = "No debate selected"
			return nil
		}
	}
	switch key {
	case "+":
		return v.apply(debates.Request{Action: debates.ActionUpvote, DebateID: d.ID})
	case "-":
		return v.apply(debates.Request{Action: debates.ActionDownvote, DebateID: d.ID})
	case "0":
		return v.apply(debates.Request{Action: debates.ActionUnvote, DebateID: d.ID})
	case "a":
		return v.apply(debates.Request{Action: debates.ActionAdopt, DebateID: d.ID, Target: v.board.Forum()})
	case "y":
		return v.apply(debates.Request{Action: debates.ActionApprove, DebateID: d.ID})
	case "x":
		v.rejecting = d.ID
		v.reason.SetValue("")
		return v.reason.Focus()
	case "enter":
		v.points = newPointsPanel(v.app, d)
		return v.points.load()
	case "c":
		return v.composer.openFor(d.ID, d.Topic)
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return cmd
}

func (v *boardView) handleReasonKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.rejecting = ""
		v.reason.Blur()
		return nil
	case "enter":
		req := debates.Request{Action: debates.ActionReject, DebateID: v.rejecting, Reason: v.reason.Value()}
		if err := req.Validate(); err != nil {
			v.app.statusMsg = "A reason is required to reject a debate"
			return nil
		}
		v.rejecting = ""
		v.reason.Blur()
		return v.apply(req)
	}
	var cmd tea.Cmd
	v.reason, cmd = v.reason.Update(msg)
	return cmd
}

func (v *boardView) renderTabs() string {
	active := v.board.Active()
	tabs := make([]string, 0, len(forum.Collections))
	for i, c := range forum.Collections {
		snap := v.board.Snapshot(c)
		label := fmt.Sprintf("%d %s", i+1, c.Title())
		if snap.Err != nil {
			label += " ⚠"
		}
		if c == active {
			tabs = append(tabs, activeTab.Render(label))
			continue
		}
		tabs = append(tabs, inactiveTab.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (v *boardView) View() string {
	if v.points != nil {
		return v.points.View()
	}
	snap := v.board.View()
	sections := []string{v.renderTabs(), ""}
	switch {
	case snap.Loading && !snap.Loaded:
		sections = append(sections, mutedStyle.Render("Loading debates…"))
	case len(snap.Items) == 0:
		sections = append(sections, mutedStyle.Render("No debates here yet."))
	default:
		sections = append(sections, v.table.View())
	}
	if snap.Err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("⚠ %v", snap.Err)))
	}
	total := snap.TotalPages
	if total < 1 {
		total = 1
	}
	sections = append(sections, mutedStyle.Render(fmt.Sprintf("Page %d/%d", snap.Page, total)))
	switch {
	case v.rejecting != "":
		sections = append(sections, titleStyle.Render("Reject debate"), v.reason.View(),
			hintStyle.Render("enter → reject    esc → cancel"))
	case v.composer.open:
		sections = append(sections, v.composer.View())
	default:
		sections = append(sections, hintStyle.Render(strings.Join([]string{
			"1-5/tab tabs", "n/p page", "+/-/0 vote", "a adopt", "y approve", "x reject",
			"enter points", "c comment", "r refresh",
		}, " · ")))
	}
	return strings.Join(sections, "\n")
}
