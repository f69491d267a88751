package main

import (
	"fmt"
	"time"

	"github.com/michal94mk/taskflow/internal/seed"
	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening the database applies migrations
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.DB.MigrationVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s database at migration version %d\n", a.DB.Driver(), v)
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo user with example projects and tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := seed.Run(cmd.Context(), a.Tracker, a.Refs, time.Now(), c.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "Demo user %s already exists, nothing to do\n", res.User.Email)
			} else {
				fmt.Fprintf(out, "Created %d projects and %d tasks for %s\n", res.Projects, res.Tasks, res.User.Email)
			}
			fmt.Fprintf(out, "API token: %s\n", res.User.APIToken)
			return nil
		},
	}
}

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var name, email string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print their API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.Tracker.CreateUser(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s <%s>\nAPI token: %s\n", u.Name, u.Email, u.APIToken)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&email, "email", "", "email address")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("email")

	cmd.AddCommand(add)
	return cmd
}

func (c *cli) remindCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send a desktop notification for each overdue task",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			user, err := a.Tracker.UserByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("failed to find user %s: %w", email, err)
			}

			now := time.Now()
			tasks, err := a.Tracker.OverdueTasks(ctx, user, now)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No overdue tasks")
				return nil
			}

			sent, err := a.Notifier.RemindOverdue(ctx, tasks, now)
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d of %d reminders\n", sent, len(tasks))
			return err
		},
	}
	cmd.Flags().StringVarP(&email, "user", "u", seed.DemoEmail, "email of the user to remind")
	return cmd
}
