// internal/tui/app.go
//
// The forumterm TUI. It is a bubbletea program: every network call runs
// inside a tea.Cmd and comes back to Update as a message, so the model is
// only ever touched from the program loop.

package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/api"
	"github.com/kingrea/forumterm/internal/approval"
	"github.com/kingrea/forumterm/internal/cache"
	"github.com/kingrea/forumterm/internal/comments"
	"github.com/kingrea/forumterm/internal/config"
	"github.com/kingrea/forumterm/internal/debates"
	"github.com/kingrea/forumterm/internal/forum"
	"github.com/kingrea/forumterm/internal/logbook"
	"github.com/kingrea/forumterm/internal/logging"
	"github.com/kingrea/forumterm/internal/votes"
)

// screen is which page of the app is showing.
type screen int

const (
	screenBoard screen = iota
	screenApprovals
	screenBookmarks
)

var screenTitles = []string{"Debates", "Member requests", "Bookmarks"}

// JournalFile is the user-facing journal inside the logs directory.
const JournalFile = "journal.log"

// Backend is every remote call the TUI makes. *api.Client satisfies it.
type Backend interface {
	debates.Source
	debates.Mutations
	comments.Poster
	DebatePoints(ctx context.Context, debateID string) ([]forum.Argument, error)
	VotePoint(ctx context.Context, pointID string, v votes.Value) error
	Entity(ctx context.Context, ref forum.Ref) (forum.Entity, error)
	PendingRequests(ctx context.Context, ref forum.Ref) ([]forum.JoinRequest, error)
	HandleRequest(ctx context.Context, ref forum.Ref, requestID string, status forum.RequestStatus) error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithBackend replaces the REST client.
func WithBackend(b Backend) AppOption {
	return func(a *App) {
		if b != nil {
			a.backend = b
		}
	}
}

// WithCache replaces the current-entity store chosen from config.
func WithCache(s cache.Store) AppOption {
	return func(a *App) {
		if s != nil {
			a.cache = s
		}
	}
}

// WithApprovalClock swaps the undo timer source.
func WithApprovalClock(c approval.Clock) AppOption {
	return func(a *App) { a.approvalClock = c }
}

// WithNow fixes the time used to derive ended/ongoing rows.
func WithNow(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App is the root model.
type App struct {
	config        *config.Config
	logger        *zap.Logger
	logbook       *logbook.Logbook
	backend       Backend
	cache         cache.Store
	approvalClock approval.Clock
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	screen    screen
	board     *boardView
	approvals *approvalsView
	bookmarks *bookmarksView

	entity    forum.Entity
	statusMsg string
	width     int
	height    int
}

type entityLoadedMsg struct {
	entity forum.Entity
	err    error
}

// NewApp loads the project config under projectDir and wires the views.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	if err := config.InitDir(projectDir); err != nil {
		return nil, err
	}
	cfg, err := config.New(projectDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(filepath.Join(cfg.LogsDir(), JournalFile))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:  cfg,
		logger:  logger,
		logbook: lb,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.backend == nil {
		a.backend = api.New(api.SettingsFromConfig(cfg), api.WithLogger(logger))
	}
	if a.cache == nil {
		store, err := cache.Open(cfg.Project.Cache.RedisURL)
		if err != nil {
			a.logWarn("Redis cache unavailable, using memory: %v", err)
			store = cache.NewMemory()
		}
		a.cache = store
	}

	pageSize := cfg.Project.API.PageSize
	a.board = newBoardView(a, pageSize)
	a.approvals = newApprovalsView(a)
	a.bookmarks = newBookmarksView(a)
	a.logInfo("Session opened · %s", cfg.Forum())
	return a, nil
}

// Close stops background timers and checks. It is safe to call more than once.
func (a *App) Close() {
	a.approvals.Close()
	a.board.Close()
	a.cancel()
	if c, ok := a.cache.(io.Closer); ok {
		_ = c.Close()
	}
	_ = a.logger.Sync()
}

func (a *App) logInfo(format string, args ...any) {
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	a.logbook.Error(format, args...)
}

// report surfaces an error on the status line and in the journal.
func (a *App) report(prefix string, err error) {
	a.statusMsg = fmt.Sprintf("%s: %v", prefix, err)
	a.logError("%s: %v", prefix, err)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.board.Init(), a.approvals.Init(), a.bookmarks.Init(), a.loadEntity())
}

func (a *App) loadEntity() tea.Cmd {
	ref := a.config.Forum()
	ctx := a.ctx
	return func() tea.Msg {
		if cached, err := a.cache.Current(ctx, ref.Type); err == nil && cached.Ref == ref {
			return entityLoadedMsg{entity: cached}
		}
		e, err := a.backend.Entity(ctx, ref)
		if err != nil {
			return entityLoadedMsg{err: err}
		}
		if e.Ref.ID == "" {
			e.Ref = ref
		}
		if err := a.cache.SetCurrent(ctx, e); err != nil {
			a.logger.Warn("cache current entity", zap.Error(err))
		}
		return entityLoadedMsg{entity: e}
	}
}

// capturing reports whether the active view owns the keyboard for text input.
func (a *App) capturing() bool {
	switch a.screen {
	case screenBoard:
		return a.board.capturing()
	case screenBookmarks:
		return a.bookmarks.capturing()
	}
	return false
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.board.resize(msg.Width, msg.Height)
		return a, nil

	case entityLoadedMsg:
		if msg.err != nil {
			a.logWarn("Forum details unavailable: %v", msg.err)
			return a, nil
		}
		a.entity = msg.entity
		a.board.setMembers(msg.entity.Members)
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.capturing() {
			switch key {
			case "q":
				return a, tea.Quit
			case "f1":
				a.screen = screenBoard
				return a, nil
			case "f2":
				a.screen = screenApprovals
				return a, nil
			case "f3":
				a.screen = screenBookmarks
				return a, nil
			case "v":
				a.screen = (a.screen + 1) % screen(len(screenTitles))
				return a, nil
			}
		}
		switch a.screen {
		case screenApprovals:
			return a, a.approvals.handleKey(msg)
		case screenBookmarks:
			return a, a.bookmarks.handleKey(msg)
		default:
			return a, a.board.handleKey(msg)
		}
	}

	return a, tea.Batch(a.board.Update(msg), a.approvals.Update(msg), a.bookmarks.Update(msg))
}

// View renders the current state to a string.
func (a *App) View() string {
	title := "⬡ FORUMTERM"
	if name := strings.TrimSpace(a.entity.Name); name != "" {
		title = fmt.Sprintf("%s · %s", title, name)
	} else {
		title = fmt.Sprintf("%s · %s", title, a.config.Forum())
	}
	var content string
	switch a.screen {
	case screenApprovals:
		content = a.approvals.View()
	case screenBookmarks:
		content = a.bookmarks.View()
	default:
		content = a.board.View()
	}
	return a.renderFrame(title, content)
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(screenTitles))
	for i, t := range screenTitles {
		label := fmt.Sprintf("F%d %s", i+1, t)
		if screen(i) == a.screen {
			tabs = append(tabs, activeTab.Render(label))
			continue
		}
		tabs = append(tabs, inactiveTab.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderFrame(title, content string) string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	main := boxStyle.Width(max(20, width-4)).Render(content)
	sections := []string{headerStyle.Render(title), a.renderTabs(), main}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, mutedStyle.MarginTop(1).Render(a.statusLine()))
	return strings.Join(sections, "\n")
}

func (a *App) statusLine() string {
	if a.statusMsg != "" {
		return a.statusMsg
	}
	return "f1-f3/v switch page · q quit"
}

func (a *App) renderLogPanel() string {
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s (%d)", JournalFile, total))
	styled := make([]string, len(lines))
	for i, line := range lines {
		level := ""
		if fields := strings.Fields(line); len(fields) > 1 {
			level = fields[1]
		}
		switch logbook.Level(level) {
		case logbook.LevelError:
			styled[i] = errorStyle.Render(line)
		case logbook.LevelWarn:
			styled[i] = warnStyle.Render(line)
		default:
			styled[i] = mutedStyle.Render(line)
		}
	}
	return boxStyle.Render(head + "\n" + strings.Join(styled, "\n"))
}
