package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change client settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}
		fmt.Printf("settings file: %s\n", path)
		fmt.Printf("server:        %s\n", s.ServerURL)
		fmt.Printf("dark mode:     %v\n", s.DarkMode)
		fmt.Printf("logged in:     %v\n", s.Token != "")
		fmt.Printf("drafts:        %d\n", len(s.Drafts))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a settings key (server, dark-mode)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "server":
			s.ServerURL = value
		case "dark-mode":
			switch value {
			case "on", "true":
				s.DarkMode = true
			case "off", "false":
				s.DarkMode = false
			default:
				return fmt.Errorf("dark-mode takes on or off, got %q", value)
			}
		default:
			return fmt.Errorf("unknown settings key %q", key)
		}

		if err := s.Save(path); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

var settingsLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, path, err := loadSettings()
		if err != nil {
			return err
		}
		s.Token = ""
		if err := s.Save(path); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsLogoutCmd)
}
