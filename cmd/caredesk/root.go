package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/caredesk/caredesk/pkg/settings"
)

var (
	flagServer       string
	flagSettingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "caredesk",
	Short: "Terminal client for the CareDesk support service",
	Long: `caredesk talks to a running CareDesk server over its HTTP API.
Log in once, then chat with the support assistant from your terminal.
Session token and preferences are stored in a local settings file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL (overrides stored setting)")
	rootCmd.PersistentFlags().StringVar(&flagSettingsPath, "settings", "", "path to settings file")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsPath() (string, error) {
	if flagSettingsPath != "" {
		return flagSettingsPath, nil
	}
	return settings.DefaultPath()
}

func loadSettings() (*settings.Settings, string, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, "", err
	}
	s, err := settings.Load(path)
	if err != nil {
		return nil, "", err
	}
	if flagServer != "" {
		s.ServerURL = flagServer
	}
	return s, path, nil
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(s *settings.Settings) *apiClient {
	return &apiClient{
		baseURL: s.ServerURL,
		token:   s.Token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type apiError struct {
	Error string `json:"error"`
}

// postJSON sends body as JSON and decodes the response into out. Non-2xx
// responses surface the server's error field when present.
func (c *apiClient) postJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
