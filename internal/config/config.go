// internal/config/config.go
//
// This package handles configuration and the .forumterm directory structure.
// Every directory forumterm runs from gets a .forumterm/ folder holding the
// project config, logs and local state (bookmark folders).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/forumterm/internal/forum"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".forumterm"

	defaultBaseURL     = "http://localhost:5000/api"
	defaultTimeoutSecs = 15
	defaultPageSize    = 10
	defaultUndoSeconds = 3
)

const defaultProjectConfigYAML = `# forumterm configuration
version: 1

# REST API the client talks to. The token is sent as a bearer token.
# FORUMTERM_API_URL and FORUMTERM_TOKEN override these values.
api:
  base_url: http://localhost:5000/api
  token: ""
  timeout_seconds: 15
  page_size: 10

# Forum whose debates the board opens on.
forum:
  type: node
  id: ""

# The signed-in user; used for optimistic vote state.
viewer:
  user_id: ""

approvals:
  undo_seconds: 3

# Share the current node/club/chapter between sessions through Redis.
# Leave empty to keep the cache in memory.
cache:
  redis_url: ""
`

// APIConfig holds the REST endpoint settings.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       int    `yaml:"page_size"`
}

// ViewerConfig identifies the signed-in user.
type ViewerConfig struct {
	UserID string `yaml:"user_id"`
}

// ApprovalsConfig tunes the member-approval page.
type ApprovalsConfig struct {
	UndoSeconds int `yaml:"undo_seconds"`
}

// CacheConfig selects the current-entity cache backend.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url,omitempty"`
}

// ProjectConfig models .forumterm/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	Forum     forum.Ref       `yaml:"forum"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Approvals ApprovalsConfig `yaml:"approvals"`
	Cache     CacheConfig     `yaml:"cache"`
}

// Config holds the runtime configuration for forumterm.
type Config struct {
	// ProjectDir is the directory where the user ran `forumterm` from
	ProjectDir string

	// ProjectStateDir is ProjectDir/.forumterm
	ProjectStateDir string

	Project ProjectConfig
}

// InitDir creates the .forumterm directory structure in the given project directory.
//
// Structure created:
// .forumterm/
// ├── config.yaml
// ├── logs/         <- forumterm.log (diagnostics) and journal.log (user-facing)
// └── state/        <- bookmark folders
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// New creates a Config populated with the project settings on disk.
func New(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		ProjectStateDir: filepath.Join(projectDir, Dir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ProjectStateDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.ProjectStateDir, "state")
}

// BookmarksPath returns the file holding bookmark folders.
func (c *Config) BookmarksPath() string {
	return filepath.Join(c.StateDir(), "bookmarks.json")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ProjectStateDir, "config.yaml")
}

// Forum returns the forum the board opens on.
func (c *Config) Forum() forum.Ref {
	return c.Project.Forum
}

// Timeout is the per-request API timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Project.API.TimeoutSeconds) * time.Second
}

// UndoWindow is how long an approval decision can be undone.
func (c *Config) UndoWindow() time.Duration {
	return time.Duration(c.Project.Approvals.UndoSeconds) * time.Second
}

// SetForum updates the default forum and persists it to .forumterm/config.yaml.
func (c *Config) SetForum(ref forum.Ref) error {
	ref.ID = strings.TrimSpace(ref.ID)
	if err := ref.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.Forum = ref
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSecs,
			PageSize:       defaultPageSize,
		},
		Forum:     forum.Ref{Type: forum.TypeNode},
		Approvals: ApprovalsConfig{UndoSeconds: defaultUndoSeconds},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.API.TimeoutSeconds <= 0 {
		pc.API.TimeoutSeconds = defaultTimeoutSecs
	}
	if pc.API.PageSize <= 0 {
		pc.API.PageSize = defaultPageSize
	}
	if pc.Approvals.UndoSeconds <= 0 {
		pc.Approvals.UndoSeconds = defaultUndoSeconds
	}
	if pc.Forum.Type == "" {
		pc.Forum.Type = forum.TypeNode
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	if pc.API.BaseURL == "" {
		pc.API.BaseURL = defaultBaseURL
	}
	pc.API.Token = strings.TrimSpace(pc.API.Token)
	if t, err := forum.ParseType(string(pc.Forum.Type)); err == nil {
		pc.Forum.Type = t
	}
	pc.Forum.ID = strings.TrimSpace(pc.Forum.ID)
	pc.Viewer.UserID = strings.TrimSpace(pc.Viewer.UserID)
	pc.Cache.RedisURL = strings.TrimSpace(pc.Cache.RedisURL)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !strings.HasPrefix(pc.API.BaseURL, "http://") && !strings.HasPrefix(pc.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL")
	}
	if _, err := forum.ParseType(string(pc.Forum.Type)); err != nil {
		return fmt.Errorf("forum.type: %w", err)
	}
	if pc.Cache.RedisURL != "" && !strings.HasPrefix(pc.Cache.RedisURL, "redis://") && !strings.HasPrefix(pc.Cache.RedisURL, "rediss://") {
		return fmt.Errorf("cache.redis_url must use the redis:// scheme")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.ProjectStateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
