package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/forumterm/internal/config"
	"github.com/kingrea/forumterm/internal/forum"
)

const cliConfig = `version: 1
forum:
  type: club
  id: c1
viewer:
  user_id: u1
`

type hits struct {
	mu    sync.Mutex
	paths []string
}

func (h *hits) add(method, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, method+" "+path)
}

func (h *hits) list() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

// setupWorkspace points the CLI at a temp project and a fake API.
func setupWorkspace(t *testing.T, routes map[string]string) *hits {
	t.Helper()
	logger = zap.NewNop()
	ws := t.TempDir()
	workspace = ws
	t.Cleanup(func() { workspace = "" })

	if err := config.InitDir(ws); err != nil {
		t.Fatalf("init dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws, config.Dir, "config.yaml"), []byte(cliConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	h := &hits{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.add(r.Method, r.URL.Path)
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("FORUMTERM_API_URL", srv.URL+"/api")
	t.Setenv("FORUMTERM_TOKEN", "")
	return h
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd, out
}

func TestDebatesCmdPrintsCollectionPage(t *testing.T) {
	h := setupWorkspace(t, map[string]string{
		"GET /api/debate/proposed": `{"data":[{"_id":"d1","topic":"Ban homework","supportCount":2,"againstCount":1,"publishedStatus":"proposed","upvotes":["u1","u2"]}],"currentPage":2,"totalPages":3}`,
	})
	debatesTab, debatesPage = "proposed", 2
	t.Cleanup(func() { debatesTab, debatesPage = string(forum.CollectionOngoing), 1 })

	cmd, out := testCmd()
	if err := runDebates(cmd, nil); err != nil {
		t.Fatalf("runDebates failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Proposed · club/c1 · page 2 of 3", "Ban homework", "+2", "proposed"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if got := h.list(); len(got) != 1 || got[0] != "GET /api/debate/proposed" {
		t.Fatalf("expected one proposed fetch, got %v", got)
	}
}

func TestDebatesCmdRejectsUnknownTab(t *testing.T) {
	setupWorkspace(t, nil)
	debatesTab = "trending"
	t.Cleanup(func() { debatesTab = string(forum.CollectionOngoing) })

	cmd, _ := testCmd()
	if err := runDebates(cmd, nil); err == nil {
		t.Fatal("expected an error for an unknown collection")
	}
}

func TestPointsCmdPrintsTally(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"GET /api/debate/points/d1": `[
			{"_id":"p1","side":"support","point":"Rest matters","participant":{"_id":"u1","userName":"ada"},"relevant":["u2","u3"]},
			{"_id":"p2","side":"against","point":"Practice helps","participant":{"_id":"u4","userName":"lin"},"irrelevant":["u2"]}
		]`,
	})
	cmd, out := testCmd()
	if err := runPoints(cmd, []string{"d1"}); err != nil {
		t.Fatalf("runPoints failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Support 1 (+2) · Against 1 (-1)", "You have posted", "Rest matters", "@lin"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestReviewRejectWithoutReasonSendsNothing(t *testing.T) {
	h := setupWorkspace(t, nil)
	reviewApprove, reviewReason = false, "  "
	t.Cleanup(func() { reviewApprove, reviewReason = false, "" })

	cmd, _ := testCmd()
	err := runReview(cmd, []string{"debate", "d1"})
	if !errors.Is(err, forum.ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if got := h.list(); len(got) != 0 {
		t.Fatalf("no request should be sent, got %v", got)
	}
}

func TestReviewApproveChapter(t *testing.T) {
	h := setupWorkspace(t, nil)
	reviewApprove = true
	t.Cleanup(func() { reviewApprove = false })

	cmd, out := testCmd()
	if err := runReview(cmd, []string{"chapter", "ch1"}); err != nil {
		t.Fatalf("runReview failed: %v", err)
	}
	if got := h.list(); len(got) != 1 || !strings.HasPrefix(got[0], "PUT ") {
		t.Fatalf("expected one PUT, got %v", got)
	}
	if !strings.Contains(out.String(), "published") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestReactPointRepeatSendsNoVote(t *testing.T) {
	h := setupWorkspace(t, map[string]string{
		"GET /api/debate/points/d1": `[{"_id":"p1","side":"support","point":"x","relevant":["u1"]}]`,
	})
	reactDebate = "d1"
	t.Cleanup(func() { reactDebate = "" })

	cmd, out := testCmd()
	if err := runReact(cmd, []string{"point", "p1", "up"}); err != nil {
		t.Fatalf("runReact failed: %v", err)
	}
	if !strings.Contains(out.String(), "already up") {
		t.Errorf("unexpected output: %s", out.String())
	}
	for _, p := range h.list() {
		if strings.HasPrefix(p, "PUT ") {
			t.Fatalf("repeat vote must not reach the API, got %v", h.list())
		}
	}
}

func TestReactRuleRefusesDownvote(t *testing.T) {
	h := setupWorkspace(t, nil)
	cmd, _ := testCmd()
	if err := runReact(cmd, []string{"rule", "r1", "down"}); err == nil {
		t.Fatal("expected rules to refuse a downvote")
	}
	if got := h.list(); len(got) != 0 {
		t.Fatalf("no request should be sent, got %v", got)
	}
}

func TestBookmarksAddThenList(t *testing.T) {
	setupWorkspace(t, nil)

	cmd, out := testCmd()
	if err := runBookmarksAdd(cmd, []string{"Reading", "list"}); err != nil {
		t.Fatalf("runBookmarksAdd failed: %v", err)
	}
	if err := runBookmarksAdd(cmd, []string{"reading list"}); err == nil {
		t.Fatal("expected a duplicate folder error")
	}

	out.Reset()
	if err := runBookmarksList(cmd, nil); err != nil {
		t.Fatalf("runBookmarksList failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Reading list") || !strings.Contains(text, "Total: 1 folders") {
		t.Errorf("unexpected listing:\n%s", text)
	}
}

func TestForumSetPersistsDefault(t *testing.T) {
	setupWorkspace(t, map[string]string{
		"GET /api/node/n7": `{"name":"Riverside","members":[{"_id":"u1","userName":"ada"}]}`,
	})
	cmd, out := testCmd()
	if err := runForumSet(cmd, []string{"nodes", "n7"}); err != nil {
		t.Fatalf("runForumSet failed: %v", err)
	}
	if !strings.Contains(out.String(), "Riverside · 1 member(s)") {
		t.Errorf("unexpected output: %s", out.String())
	}

	cfg, _, err := loadProject()
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if got := cfg.Forum(); got != (forum.Ref{Type: forum.TypeNode, ID: "n7"}) {
		t.Fatalf("forum not persisted, got %v", got)
	}
}
