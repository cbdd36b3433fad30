// Package bookmarks manages the viewer's bookmark folders.
package bookmarks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// JustNow is the LastUpdated label of a freshly created folder.
const JustNow = "Just now"

var (
	ErrEmptyName       = errors.New("bookmarks: folder name is required")
	ErrDuplicateFolder = errors.New("bookmarks: folder already exists")
)

// Folder is one bookmark folder.
type Folder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PostsCount  int    `json:"postsCount"`
	LastUpdated string `json:"lastUpdated"`
}

// CreateFolder returns existing with exactly one new empty folder appended.
// The input slice is not modified.
func CreateFolder(existing []Folder, name string) ([]Folder, Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return existing, Folder{}, ErrEmptyName
	}
	for _, f := range existing {
		if strings.EqualFold(f.Name, name) {
			return existing, Folder{}, fmt.Errorf("%w: %s", ErrDuplicateFolder, f.Name)
		}
	}
	folder := Folder{
		ID:          uuid.NewString(),
		Name:        name,
		PostsCount:  0,
		LastUpdated: JustNow,
	}
	out := make([]Folder, 0, len(existing)+1)
	out = append(out, existing...)
	out = append(out, folder)
	return out, folder, nil
}

type envelope struct {
	Version int      `json:"version"`
	Folders []Folder `json:"folders"`
}

// Load reads folders from path. A missing file is an empty list. Both a bare
// array and the versioned envelope written by Save are accepted.
func Load(path string) ([]Folder, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var folders []Folder
		if err := json.Unmarshal(trimmed, &folders); err != nil {
			return nil, fmt.Errorf("bookmarks: parse %s: %w", path, err)
		}
		return folders, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("bookmarks: parse %s: %w", path, err)
	}
	return env.Folders, nil
}

// Save writes folders to path, creating parent directories.
func Save(path string, folders []Folder) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if folders == nil {
		folders = []Folder{}
	}
	data, err := json.MarshalIndent(envelope{Version: 1, Folders: folders}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
