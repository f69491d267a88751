package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/michal94mk/taskflow/internal/seed"
	"github.com/michal94mk/taskflow/internal/ui"
	"github.com/michal94mk/taskflow/internal/ui/theme"
	"github.com/spf13/cobra"
)

func (c *cli) tuiCmd() *cobra.Command {
	var email, themeName string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal board and dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if themeName != "" {
				t, ok := theme.ByName(themeName)
				if !ok {
					return fmt.Errorf("unknown theme %q", themeName)
				}
				theme.SetTheme(t)
			}

			// Anything written to the terminal would corrupt the screen
			closeLog, err := c.redirectLog()
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Tracker.UserByEmail(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("failed to find user %s: %w", email, err)
			}

			model := ui.NewRootModel(ui.Deps{
				Board:     a.Board,
				Analytics: a.Analytics,
				Search:    a.Search,
				User:      user,
			})

			p := tea.NewProgram(
				model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&email, "user", "u", seed.DemoEmail, "email of the user to act as")
	cmd.Flags().StringVar(&themeName, "theme", "", "theme (nord, dracula)")
	return cmd
}

// redirectLog sends the logger to the configured log file, or drops it
// when none is set
func (c *cli) redirectLog() (func(), error) {
	if c.cfg.Log.Path == "" {
		c.log.Logger.SetOutput(io.Discard)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.cfg.Log.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(c.cfg.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	c.log.Logger.SetOutput(f)
	return func() { f.Close() }, nil
}
