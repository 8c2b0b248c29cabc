// Package settings holds the terminal client's local state: appearance,
// server address, session token, and unsent message drafts. The lifecycle
// is explicit: Load at startup (a missing file yields defaults), mutate in
// memory, Save before exit. Nothing here is ambient or shared.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Settings struct {
	DarkMode  bool              `json:"dark_mode"`
	ServerURL string            `json:"server_url"`
	Token     string            `json:"token,omitempty"`
	Drafts    map[string]string `json:"drafts,omitempty"` // conversation id -> unsent text
}

func defaults() *Settings {
	return &Settings{
		ServerURL: "http://localhost:8090",
		Drafts:    map[string]string{},
	}
}

// DefaultPath is the per-user settings file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "caredesk", "settings.json"), nil
}

// Load reads settings from path. A missing file is not an error; it yields
// the defaults so first runs work without setup.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	s := defaults()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if s.Drafts == nil {
		s.Drafts = map[string]string{}
	}
	return s, nil
}

// Save writes settings atomically (temp file + rename) so a crash never
// leaves a half-written file behind.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

func (s *Settings) Draft(conversationID string) string {
	return s.Drafts[conversationID]
}

func (s *Settings) SetDraft(conversationID, text string) {
	if text == "" {
		delete(s.Drafts, conversationID)
		return
	}
	s.Drafts[conversationID] = text
}
