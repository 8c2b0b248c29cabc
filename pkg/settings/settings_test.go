package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if s.DarkMode {
		t.Errorf("expected DarkMode false by default")
	}
	if s.ServerURL != "http://localhost:8090" {
		t.Errorf("expected default server URL, got %q", s.ServerURL)
	}
	if s.Drafts == nil {
		t.Errorf("expected non-nil Drafts map")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{
		DarkMode:  true,
		ServerURL: "https://support.example.com",
		Token:     "abc123",
		Drafts:    map[string]string{"conv-1": "half-typed message"},
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.DarkMode {
		t.Errorf("DarkMode not preserved")
	}
	if got.ServerURL != s.ServerURL {
		t.Errorf("ServerURL = %q, want %q", got.ServerURL, s.ServerURL)
	}
	if got.Token != "abc123" {
		t.Errorf("Token = %q, want abc123", got.Token)
	}
	if got.Draft("conv-1") != "half-typed message" {
		t.Errorf("draft not preserved: %q", got.Draft("conv-1"))
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	s := defaults()
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after Save")
	}
}

func TestSetDraftEmptyRemoves(t *testing.T) {
	s := defaults()
	s.SetDraft("c1", "draft text")
	if s.Draft("c1") != "draft text" {
		t.Fatalf("draft not stored")
	}
	s.SetDraft("c1", "")
	if _, ok := s.Drafts["c1"]; ok {
		t.Errorf("empty SetDraft should delete the entry")
	}
}

func TestLoadCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected error for corrupt settings file")
	}
}
