package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Authenticate and store a session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}

		password, err := readPassword()
		if err != nil {
			return err
		}

		client := newAPIClient(s)
		token, err := performLogin(client, args[0], password)
		if err != nil {
			return err
		}

		s.Token = token
		if err := s.Save(path); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s\n", args[0])
		return nil
	},
}

// performLogin exchanges credentials for a session token. The server replies
// with a message and the token only.
func performLogin(client *apiClient, email, password string) (string, error) {
	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := client.postJSON("/api/login", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("server returned no session token")
	}
	return resp.Token, nil
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	// Piped input, e.g. in scripts.
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
