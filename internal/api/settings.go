package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/forumterm/internal/config"
)

const (
	// DefaultBaseURL is used when neither config nor env name an API.
	DefaultBaseURL = "http://localhost:5000/api"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 15 * time.Second
	// DefaultPageSize is the page length requested for debate collections.
	DefaultPageSize = 10
	// DefaultMaxBodyBytes caps decoded responses at 4 MB.
	DefaultMaxBodyBytes int64 = 4 << 20
)

// Settings captures how the client reaches the REST API.
type Settings struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	PageSize     int
	MaxBodyBytes int64
}

// SettingsFromConfig builds Settings using the project's .forumterm config and environment overrides.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		PageSize:     DefaultPageSize,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
	if cfg != nil {
		raw := cfg.Project.API
		if base := strings.TrimSpace(raw.BaseURL); base != "" {
			settings.BaseURL = base
		}
		settings.Token = strings.TrimSpace(raw.Token)
		if raw.TimeoutSeconds > 0 {
			settings.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
		}
		if raw.PageSize > 0 {
			settings.PageSize = raw.PageSize
		}
	}
	settings.applyEnvOverrides()
	settings.normalize()
	return settings
}

func (s *Settings) applyEnvOverrides() {
	if s == nil {
		return
	}
	if base := strings.TrimSpace(os.Getenv("FORUMTERM_API_URL")); base != "" {
		s.BaseURL = base
	}
	if token := strings.TrimSpace(os.Getenv("FORUMTERM_TOKEN")); token != "" {
		s.Token = token
	}
	if value := strings.TrimSpace(os.Getenv("FORUMTERM_TIMEOUT")); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			s.Timeout = d
		} else if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			s.Timeout = time.Duration(secs) * time.Second
		}
	}
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
}
