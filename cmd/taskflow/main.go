package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/michal94mk/taskflow/internal/app"
	"github.com/michal94mk/taskflow/internal/config"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// cli carries what every subcommand shares: the loaded config and logger
type cli struct {
	cfgPath string
	cfg     *config.Config
	log     *logrus.Entry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - projects, tasks and a kanban board",
		Long: `TaskFlow tracks projects and their tasks.

It serves a JSON API, runs a terminal board and dashboard, and sends
desktop reminders for overdue work.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", config.DefaultPath(), "config file")

	root.AddCommand(
		c.serveCmd(),
		c.tuiCmd(),
		c.migrateCmd(),
		c.seedCmd(),
		c.userCmd(),
		c.statusCmd(),
		c.priorityCmd(),
		c.remindCmd(),
		c.addCmd(),
		c.configCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the config and builds the logger before any subcommand runs
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Env, cfg.Log.Path)
	if err != nil {
		return err
	}
	if err := logging.WithLevel(log, cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Env != logging.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	c.cfg = cfg
	c.log = log.WithField("command", cmd.Name())
	return nil
}

func (c *cli) openApp() (*app.App, error) {
	return app.New(c.cfg, c.log)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		// No config needed to print the version
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskflow v%s\n", version)
		},
	}
}
