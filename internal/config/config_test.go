package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/forumterm/internal/forum"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	stateDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, ProjectStateDir: stateDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.UndoWindow() != 3*time.Second {
		t.Fatalf("undo window = %s, want 3s", c.UndoWindow())
	}
	if c.Project.API.PageSize != defaultPageSize {
		t.Fatalf("page size = %d, want %d", c.Project.API.PageSize, defaultPageSize)
	}
}

func TestInitDirSeedsParsableConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, sub := range []string{"logs", "state"} {
		if _, err := os.Stat(filepath.Join(projectDir, Dir, sub)); err != nil {
			t.Fatalf("missing %s dir: %v", sub, err)
		}
	}
	c, err := New(projectDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Forum().Type != forum.TypeNode {
		t.Fatalf("forum type = %s, want node", c.Forum().Type)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	stateDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
api:
  base_url: https://api.example.org/v1/
  token: " secret "
  page_size: 25
forum:
  type: clubs
  id: club-7
viewer:
  user_id: u-1
approvals:
  undo_seconds: 5
cache:
  redis_url: redis://localhost:6379/2
`)
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, ProjectStateDir: stateDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.API.BaseURL != "https://api.example.org/v1" {
		t.Fatalf("base url not trimmed: %q", c.Project.API.BaseURL)
	}
	if c.Project.API.Token != "secret" {
		t.Fatalf("token not trimmed: %q", c.Project.API.Token)
	}
	if c.Project.API.TimeoutSeconds != defaultTimeoutSecs {
		t.Fatalf("timeout default lost: %d", c.Project.API.TimeoutSeconds)
	}
	if got := c.Forum(); got.Type != forum.TypeClub || got.ID != "club-7" {
		t.Fatalf("forum = %+v", got)
	}
	if c.UndoWindow() != 5*time.Second {
		t.Fatalf("undo window = %s", c.UndoWindow())
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	stateDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
api:
  base_url: ftp://example.org
`)
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, ProjectStateDir: stateDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestSetForumPersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := New(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetForum(forum.Ref{Type: forum.TypeChapter, ID: " ch-2 "}); err != nil {
		t.Fatalf("SetForum: %v", err)
	}
	reloaded, err := New(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Forum(); got.Type != forum.TypeChapter || got.ID != "ch-2" {
		t.Fatalf("reloaded forum = %+v", got)
	}
	if err := c.SetForum(forum.Ref{Type: forum.TypeNode}); err == nil {
		t.Fatalf("expected error for empty forum id")
	}
}
