package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/forumterm/internal/bookmarks"
)

type bookmarksLoadedMsg struct {
	folders []bookmarks.Folder
	err     error
}

type bookmarksView struct {
	app     *App
	folders []bookmarks.Folder
	cursor  int
	err     error

	dialogOpen bool
	dialogErr  string
	name       textinput.Model
}

func newBookmarksView(a *App) *bookmarksView {
	name := textinput.New()
	name.Placeholder = "Folder name"
	name.CharLimit = 64
	return &bookmarksView{app: a, name: name}
}

func (v *bookmarksView) Init() tea.Cmd {
	path := v.app.config.BookmarksPath()
	return func() tea.Msg {
		folders, err := bookmarks.Load(path)
		return bookmarksLoadedMsg{folders: folders, err: err}
	}
}

func (v *bookmarksView) capturing() bool {
	return v.dialogOpen
}

func (v *bookmarksView) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(bookmarksLoadedMsg); ok {
		v.err = m.err
		if m.err != nil {
			v.app.report("Bookmarks unavailable", m.err)
			return nil
		}
		v.folders = m.folders
	}
	return nil
}

func (v *bookmarksView) openDialog() tea.Cmd {
	v.dialogOpen = true
	v.dialogErr = ""
	v.name.SetValue("")
	return v.name.Focus()
}

func (v *bookmarksView) closeDialog() {
	v.dialogOpen = false
	v.dialogErr = ""
	v.name.Blur()
}

// submit creates the folder, persists the list and closes the dialog. The
// dialog stays open with the error when the name is rejected.
func (v *bookmarksView) submit() {
	folders, created, err := bookmarks.CreateFolder(v.folders, v.name.Value())
	if err != nil {
		v.dialogErr = err.Error()
		return
	}
	if err := bookmarks.Save(v.app.config.BookmarksPath(), folders); err != nil {
		v.dialogErr = err.Error()
		v.app.report("Bookmarks not saved", err)
		return
	}
	v.folders = folders
	v.cursor = len(folders) - 1
	v.closeDialog()
	v.app.statusMsg = fmt.Sprintf("Folder %q created", created.Name)
	v.app.logInfo("Bookmark folder %s created", created.Name)
}

func (v *bookmarksView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.dialogOpen {
		switch msg.String() {
		case "esc":
			v.closeDialog()
			return nil
		case "enter":
			v.submit()
			return nil
		}
		var cmd tea.Cmd
		v.name, cmd = v.name.Update(msg)
		return cmd
	}
	switch msg.String() {
	case "n":
		return v.openDialog()
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.folders)-1 {
			v.cursor++
		}
	}
	return nil
}

func (v *bookmarksView) View() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Bookmark folders (%d)", len(v.folders)))}
	if v.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("⚠ %v", v.err)))
	}
	if len(v.folders) == 0 {
		lines = append(lines, mutedStyle.Render("No folders yet. Press n to create one."))
	}
	for i, f := range v.folders {
		line := fmt.Sprintf("%s · %d post(s) · %s", f.Name, f.PostsCount, f.LastUpdated)
		if i == v.cursor {
			lines = append(lines, selectedStyle.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	if v.dialogOpen {
		dialog := []string{titleStyle.Render("New folder"), v.name.View()}
		if v.dialogErr != "" {
			dialog = append(dialog, errorStyle.Render(v.dialogErr))
		}
		dialog = append(dialog, hintStyle.Render("enter → create    esc → cancel"))
		lines = append(lines, "", boxStyle.Render(strings.Join(dialog, "\n")))
	} else {
		lines = append(lines, hintStyle.Render("n new folder"))
	}
	return strings.Join(lines, "\n")
}
