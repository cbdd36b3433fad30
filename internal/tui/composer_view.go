package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/forumterm/internal/api"
	"github.com/kingrea/forumterm/internal/comments"
	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/profanity"
)

type verdictMsg profanity.Verdict

type commentPostedMsg struct {
	posted comments.Posted
	err    error
}

// composerPanel writes a comment on a debate with a live profanity hint.
type composerPanel struct {
	app       *App
	input     textinput.Model
	composer  *comments.Composer
	debouncer *profanity.Debouncer
	verdicts  chan profanity.Verdict

	open      bool
	entityID  string
	subject   string
	lastText  string
	verdict   *profanity.Verdict
	listening bool
	posting   bool
}

func newComposerPanel(a *App) *composerPanel {
	input := textinput.New()
	input.Placeholder = "Write a comment, @mention members"
	input.CharLimit = 1000
	p := &composerPanel{
		app:      a,
		input:    input,
		composer: comments.NewComposer(a.backend, nil, a.logger),
		verdicts: make(chan profanity.Verdict, 1),
	}
	p.debouncer = profanity.NewDebouncer(a.backend.CheckProfanity, p.deliver)
	return p
}

// deliver keeps only the newest verdict in the channel.
func (p *composerPanel) deliver(v profanity.Verdict) {
	for {
		select {
		case p.verdicts <- v:
			return
		default:
		}
		select {
		case <-p.verdicts:
		default:
		}
	}
}

func (p *composerPanel) listen() tea.Cmd {
	if p.listening {
		return nil
	}
	p.listening = true
	ctx := p.app.ctx
	ch := p.verdicts
	return func() tea.Msg {
		select {
		case v := <-ch:
			return verdictMsg(v)
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *composerPanel) setMembers(members []forum.UserRef) {
	p.composer = comments.NewComposer(p.app.backend, comments.NewResolver(members), p.app.logger)
}

func (p *composerPanel) Close() {
	p.debouncer.Stop()
}

func (p *composerPanel) openFor(entityID, subject string) tea.Cmd {
	p.open = true
	p.entityID = entityID
	p.subject = subject
	p.lastText = ""
	p.verdict = nil
	p.input.SetValue("")
	return tea.Batch(p.input.Focus(), p.listen())
}

func (p *composerPanel) close() {
	p.open = false
	p.input.Blur()
}

func (p *composerPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case verdictMsg:
		p.listening = false
		v := profanity.Verdict(msg)
		if v.Text == strings.TrimSpace(p.input.Value()) {
			p.verdict = &v
		}
		if p.open {
			return p.listen()
		}
	case commentPostedMsg:
		p.posting = false
		if msg.err != nil {
			p.app.report("Comment not posted", msg.err)
			return nil
		}
		p.close()
		status := "Comment posted"
		if len(msg.posted.Unknown) > 0 {
			status += fmt.Sprintf(" · unknown mentions: @%s", strings.Join(msg.posted.Unknown, ", @"))
		}
		p.app.statusMsg = status
		p.app.logInfo("Comment posted on %s", p.subject)
	}
	return nil
}

func (p *composerPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		p.close()
		return nil
	case "enter":
		if p.posting {
			return nil
		}
		draft := api.CommentDraft{EntityID: p.entityID, Content: p.input.Value()}
		if strings.TrimSpace(draft.Content) == "" {
			p.app.statusMsg = comments.ErrEmptyContent.Error()
			return nil
		}
		p.posting = true
		ctx := p.app.ctx
		composer := p.composer
		return func() tea.Msg {
			posted, err := composer.Post(ctx, draft)
			return commentPostedMsg{posted: posted, err: err}
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if text := strings.TrimSpace(p.input.Value()); text != p.lastText {
		p.lastText = text
		p.verdict = nil
		if text != "" {
			p.debouncer.Submit(text)
		}
	}
	return cmd
}

func (p *composerPanel) View() string {
	lines := []string{titleStyle.Render("Comment on " + p.subject), p.input.View()}
	switch {
	case p.posting:
		lines = append(lines, mutedStyle.Render("Posting…"))
	case p.verdict != nil && p.verdict.Err != nil:
		lines = append(lines, warnStyle.Render("Profanity check unavailable"))
	case p.verdict != nil && p.verdict.Profane:
		lines = append(lines, errorStyle.Render("This comment will be rejected as profane"))
	case p.verdict != nil:
		lines = append(lines, okStyle.Render("✓ looks fine"))
	}
	lines = append(lines, hintStyle.Render("enter → post    esc → cancel"))
	return strings.Join(lines, "\n")
}
