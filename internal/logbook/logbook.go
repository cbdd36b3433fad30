// Package logbook is the forum client's journal. Debate mutations, member
// request outcomes, posted comments and collection refresh failures are
// written here, and the board's status line and log panel read them back.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// keep bounds the lines held for the log panel.
const keep = 64

// Entry is the latest message, shown on the board's status line.
type Entry struct {
	Level   Level
	Message string
	At      time.Time
}

// Logbook appends journal lines to a file that survives restarts and keeps
// the newest of them in memory so the log panel renders without a disk read.
type Logbook struct {
	path  string
	clock func() time.Time

	mu     sync.Mutex
	last   Entry
	recent []string
	total  int
}

// New opens the journal at path, creating its directory, and picks up the
// lines an earlier session left behind.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logbook{path: path, clock: time.Now}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logbook) load() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		l.remember(sc.Text())
	}
	return sc.Err()
}

// remember must be called with mu held, or before l is shared.
func (l *Logbook) remember(line string) {
	l.total++
	l.recent = append(l.recent, line)
	if n := len(l.recent); n > keep {
		l.recent = append(l.recent[:0], l.recent[n-keep:]...)
	}
}

// Path returns the journal file.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append records message at level. A failed file write still reaches the
// status line and the log panel.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	message = strings.TrimSpace(message)
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.clock()
	l.last = Entry{Level: level, Message: message, At: at}
	line := fmt.Sprintf("%s %-5s %s", at.UTC().Format(time.RFC3339), level, message)
	l.remember(line)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}

// Last returns the latest entry appended in this process.
func (l *Logbook) Last() (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.last.Message != ""
}

// Tail returns up to n of the newest lines, oldest first, and the number
// of lines the journal holds across sessions. n is capped at 64.
func (l *Logbook) Tail(n int) ([]string, int) {
	if l == nil || n <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.total == 0 {
		return nil, 0
	}
	from := max(len(l.recent)-n, 0)
	return append([]string(nil), l.recent[from:]...), l.total
}

func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
