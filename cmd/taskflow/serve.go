package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/michal94mk/taskflow/internal/rest"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.cfg.HTTP.Addr
			}

			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if n, err := a.SyncAllProjects(cmd.Context()); err != nil {
				return err
			} else if n > 0 {
				c.log.WithField("projects", n).Info("repaired completed task counters")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rest.Serve(ctx, a, addr, c.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
