package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/refdata"
)

// taxonEdit holds the flags given to a status or priority set command.
// Nil fields are left as stored.
type taxonEdit struct {
	Name  *string
	Color *string
	Order *int
}

func (e taxonEdit) apply(name, color *string, order *int) {
	if e.Name != nil {
		*name = strings.TrimSpace(*e.Name)
	}
	if e.Color != nil {
		*color = strings.TrimSpace(*e.Color)
	}
	if e.Order != nil {
		*order = *e.Order
	}
}

func setStatus(ctx context.Context, refs *refdata.Registry, slug string, e taxonEdit) (*model.TaskStatus, error) {
	s, err := refs.StatusBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("unknown status %q", slug)
	}
	e.apply(&s.Name, &s.Color, &s.Order)
	if err := refs.UpdateStatus(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func setPriority(ctx context.Context, refs *refdata.Registry, slug string, e taxonEdit) (*model.TaskPriority, error) {
	p, err := refs.PriorityBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("unknown priority %q", slug)
	}
	e.apply(&p.Name, &p.Color, &p.Order)
	if err := refs.UpdatePriority(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// taxonSetCmd builds "<kind> set <slug>". Only flags the user passed are
// written; the slug itself is never editable.
func (c *cli) taxonSetCmd(kind string, run func(cmd *cobra.Command, refs *refdata.Registry, slug string, e taxonEdit) error) *cobra.Command {
	var (
		name, color string
		order       int
	)

	set := &cobra.Command{
		Use:   "set <slug>",
		Short: fmt.Sprintf("Change the name, color or order of a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var e taxonEdit
			if cmd.Flags().Changed("name") {
				e.Name = &name
			}
			if cmd.Flags().Changed("color") {
				e.Color = &color
			}
			if cmd.Flags().Changed("order") {
				e.Order = &order
			}
			if e.Name == nil && e.Color == nil && e.Order == nil {
				return fmt.Errorf("nothing to change, pass --name, --color or --order")
			}

			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return run(cmd, a.Refs, args[0], e)
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name")
	set.Flags().StringVar(&color, "color", "", "color name")
	set.Flags().IntVar(&order, "order", 0, "position in lists")
	return set
}

func (c *cli) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage task statuses",
	}
	cmd.AddCommand(c.taxonSetCmd("status", func(cmd *cobra.Command, refs *refdata.Registry, slug string, e taxonEdit) error {
		s, err := setStatus(cmd.Context(), refs, slug, e)
		if err != nil {
			return err
		}
		c.log.WithField("status_id", s.ID).Info("status updated")
		fmt.Fprintf(cmd.OutOrStdout(), "Updated status %s: %s (%s, order %d)\n", s.Slug, s.Name, s.Color, s.Order)
		return nil
	}))
	return cmd
}

func (c *cli) priorityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Manage task priorities",
	}
	cmd.AddCommand(c.taxonSetCmd("priority", func(cmd *cobra.Command, refs *refdata.Registry, slug string, e taxonEdit) error {
		p, err := setPriority(cmd.Context(), refs, slug, e)
		if err != nil {
			return err
		}
		c.log.WithField("priority_id", p.ID).Info("priority updated")
		fmt.Fprintf(cmd.OutOrStdout(), "Updated priority %s: %s (%s, order %d)\n", p.Slug, p.Name, p.Color, p.Order)
		return nil
	}))
	return cmd
}
