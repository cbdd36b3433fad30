package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/forumterm/internal/debates"
	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/reactions"
	"github.com/kingrea/forumterm/internal/votes"
)

type pointsLoadedMsg struct {
	debateID string
	args     []forum.Argument
	err      error
}

type pointVotedMsg struct {
	pointID string
	changed bool
	err     error
}

// pointsPanel lists one debate's arguments and lets the viewer mark them
// relevant or irrelevant.
type pointsPanel struct {
	app     *App
	debate  forum.Debate
	args    []forum.Argument
	toggler *reactions.Toggler
	cursor  int
	loaded  bool
	err     error
}

func newPointsPanel(a *App, d forum.Debate) *pointsPanel {
	return &pointsPanel{
		app:     a,
		debate:  d,
		toggler: reactions.NewToggler(a.config.Project.Viewer.UserID, reactions.Points(a.backend), a.logger),
	}
}

func (p *pointsPanel) load() tea.Cmd {
	ctx := p.app.ctx
	id := p.debate.ID
	return func() tea.Msg {
		args, err := p.app.backend.DebatePoints(ctx, id)
		return pointsLoadedMsg{debateID: id, args: args, err: err}
	}
}

func (p *pointsPanel) Update(msg tea.Msg) tea.Cmd {
	if p == nil {
		return nil
	}
	switch msg := msg.(type) {
	case pointsLoadedMsg:
		if msg.debateID != p.debate.ID {
			return nil
		}
		p.loaded = true
		p.err = msg.err
		p.args = msg.args
		for _, a := range msg.args {
			p.toggler.Seed(a.ID, a.Relevant, a.Irrelevant)
		}
	case pointVotedMsg:
		if msg.err != nil {
			p.app.report("Point vote failed", msg.err)
			return nil
		}
		if msg.changed {
			p.app.statusMsg = "Point vote saved"
		}
		p.syncArgs()
	}
	return nil
}

// syncArgs copies the toggler's sets back so the side tally stays current.
func (p *pointsPanel) syncArgs() {
	for i := range p.args {
		p.args[i].Relevant, p.args[i].Irrelevant = p.toggler.Sets(p.args[i].ID)
	}
}

func (p *pointsPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.args)-1 {
			p.cursor++
		}
	case "+":
		return p.cast(votes.Up)
	case "-":
		return p.cast(votes.Down)
	case "0":
		return p.cast(votes.None)
	}
	return nil
}

func (p *pointsPanel) cast(v votes.Value) tea.Cmd {
	if p.cursor >= len(p.args) {
		return nil
	}
	id := p.args[p.cursor].ID
	ctx := p.app.ctx
	return func() tea.Msg {
		changed, err := p.toggler.Cast(ctx, id, v)
		return pointVotedMsg{pointID: id, changed: changed, err: err}
	}
}

func (p *pointsPanel) View() string {
	lines := []string{titleStyle.Render(p.debate.Topic)}
	switch {
	case p.err != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("⚠ %v", p.err)))
	case !p.loaded:
		lines = append(lines, mutedStyle.Render("Loading points…"))
	case len(p.args) == 0:
		lines = append(lines, mutedStyle.Render("No points yet."))
	default:
		t := debates.Tally(p.args, p.app.config.Project.Viewer.UserID)
		lines = append(lines, mutedStyle.Render(fmt.Sprintf(
			"Support %d (%+d) · Against %d (%+d)", t.Support, t.SupportScore, t.Against, t.AgainstScore)), "")
		for i, a := range p.args {
			marker := " "
			switch p.toggler.Value(a.ID) {
			case votes.Up:
				marker = "▲"
			case votes.Down:
				marker = "▼"
			}
			line := fmt.Sprintf("%s [%s] %s (%+d) · @%s", marker, a.Side, a.Content,
				p.toggler.Tally(a.ID).Score(), a.Participant.Username)
			if i == p.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			lines = append(lines, line)
		}
	}
	lines = append(lines, hintStyle.Render("+ relevant · - irrelevant · 0 clear · esc back"))
	return strings.Join(lines, "\n")
}
