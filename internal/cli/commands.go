package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"github.com/spf13/cobra"
)

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext(cmd)
			defer cancel()

			if err := s.board.Load(ctx); err != nil {
				return err
			}
			return writeTasks(cmd.OutOrStdout(), s.opts.output, s.board.Tasks())
		},
	}
}

func newAddCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task to the end of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext(cmd)
			defer cancel()

			if err := s.board.Load(ctx); err != nil {
				return err
			}
			task, err := s.board.Add(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeTask(cmd.OutOrStdout(), s.opts.output, task, "Added")
		},
	}
}

func newToggleCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between open and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext(cmd)
			defer cancel()

			task, err := s.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := s.board.Toggle(ctx, task.ID); err != nil {
				return err
			}
			task.Completed = !task.Completed
			return writeTask(cmd.OutOrStdout(), s.opts.output, task, "Toggled")
		},
	}
}

func newEditCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace the text of a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext(cmd)
			defer cancel()

			task, err := s.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if err := s.board.Edit(ctx, task.ID, text); err != nil {
				return err
			}
			task.Text = strings.TrimSpace(text)
			return writeTask(cmd.OutOrStdout(), s.opts.output, task, "Edited")
		},
	}
}

func newRemoveCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext(cmd)
			defer cancel()

			task, err := s.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := s.board.Remove(ctx, task.ID); err != nil {
				return err
			}
			return writeTask(cmd.OutOrStdout(), s.opts.output, task, "Deleted")
		},
	}
}

func newMoveCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move a task to a 1-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil || position < 1 {
				return fmt.Errorf("position must be a positive number: %s", args[1])
			}

			ctx, cancel := callContext(cmd)
			defer cancel()

			task, err := s.resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if err := s.board.Move(ctx, task.ID, position-1); err != nil {
				return err
			}
			return writeTasks(cmd.OutOrStdout(), s.opts.output, s.board.Tasks())
		},
	}
}

func newClearCmd(s *session) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete every task without --yes")
			}

			ctx, cancel := callContext(cmd)
			defer cancel()

			if err := s.relay.ClearAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All tasks cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting every task")
	return cmd
}

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the store lives and whether it is initialized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := callContext(cmd)
			defer cancel()

			status, err := s.relay.GetStatus(ctx)
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), s.opts.output, status)
		},
	}
}

func (s *session) resolve(ctx context.Context, ref string) (domain.Task, error) {
	if err := s.board.Load(ctx); err != nil {
		return domain.Task{}, err
	}
	return s.board.Resolve(ref)
}
