package bookmarks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateFolderAppendsOne(t *testing.T) {
	folders, created, err := CreateFolder(nil, "  Research ")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if len(folders) != 1 {
		t.Fatalf("expected exactly one folder, got %+v", folders)
	}
	got := folders[0]
	if got.Name != "Research" || got.PostsCount != 0 || got.LastUpdated != "Just now" {
		t.Fatalf("unexpected folder: %+v", got)
	}
	if got.ID == "" || got != created {
		t.Fatalf("created folder mismatch: %+v vs %+v", got, created)
	}
}

func TestCreateFolderRejects(t *testing.T) {
	existing := []Folder{{ID: "1", Name: "Research"}}
	if _, _, err := CreateFolder(existing, "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	out, _, err := CreateFolder(existing, "research")
	if !errors.Is(err, ErrDuplicateFolder) {
		t.Fatalf("expected ErrDuplicateFolder, got %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rejected create must not grow the list: %+v", out)
	}
}

func TestCreateFolderLeavesInputAlone(t *testing.T) {
	existing := make([]Folder, 1, 4)
	existing[0] = Folder{ID: "1", Name: "A"}
	out, _, err := CreateFolder(existing, "B")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	out[0].Name = "changed"
	if existing[0].Name != "A" {
		t.Fatalf("input slice was aliased")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "bookmarks.json")
	if folders, err := Load(path); err != nil || len(folders) != 0 {
		t.Fatalf("missing file should load empty, got %+v, %v", folders, err)
	}
	folders, _, _ := CreateFolder(nil, "Research")
	if err := Save(path, folders); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != folders[0] {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	if err := os.WriteFile(path, []byte(`[{"id":"x","name":"Old","postsCount":3,"lastUpdated":"2d ago"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].PostsCount != 3 {
		t.Fatalf("unexpected folders: %+v", loaded)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
