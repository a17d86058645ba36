package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/orbit-planner/internal/clock"
	"github.com/nhle/orbit-planner/internal/model"
)

// deadlineLayouts are the accepted --deadline formats, tried in order.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDeadline parses a user-supplied deadline string. A bare date
// lands at end of working day so the reminder still has room to fire.
func parseDeadline(s string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			if layout == "2006-01-02" {
				t = t.Add(18 * time.Hour)
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline %q (want YYYY-MM-DD, YYYY-MM-DD HH:MM, or RFC3339)", s)
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		deadlineStr string
		urgency     int
		description string
		color       string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deadline, err := parseDeadline(deadlineStr)
			if err != nil {
				return err
			}

			session, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			task, snap, err := session.Engine.AddTask(model.TaskFields{
				Title:       strings.Join(args, " "),
				Description: description,
				Deadline:    deadline,
				Urgency:     urgency,
				Color:       color,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s (due %s, urgency %d)\n",
				task.Title, task.Deadline.Format("2006-01-02 15:04"), task.Urgency)
			printAchievements(cmd, snap.NewAchievements)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deadlineStr, "deadline", "d", "", "task deadline (required)")
	cmd.Flags().IntVarP(&urgency, "urgency", "u", 1, "urgency 1-5")
	cmd.Flags().StringVar(&description, "description", "", "longer description")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.MarkFlagRequired("deadline")
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in deadline order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			snap := session.Engine.Snapshot()
			tasks := snap.Tasks
			sort.Slice(tasks, func(i, j int) bool {
				return tasks[i].Deadline.Before(tasks[j].Deadline)
			})

			for _, t := range tasks {
				if !all && t.Completed() {
					continue
				}
				marker := " "
				if t.Completed() {
					marker = "x"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-8s  %s  u%d  %s\n",
					marker, shortID(t.ID), t.Deadline.Format("2006-01-02 15:04"), t.Urgency, t.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	return cmd
}

// NewDoneCommand creates the done command.
func NewDoneCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "done [task-id]",
		Short: "Complete a task, or every task due on a date with --date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			var snap model.Snapshot
			switch {
			case date != "":
				day, err := time.ParseInLocation(clock.DayFormat, date, time.Local)
				if err != nil {
					return fmt.Errorf("unrecognized date %q: %w", date, err)
				}
				snap, err = session.Engine.SetAllStatus(day, model.TaskStatusCompleted)
				if err != nil {
					return err
				}
			case len(args) == 1:
				id, err := resolveID(session.Engine.Snapshot().Tasks, args[0])
				if err != nil {
					return err
				}
				snap, err = session.Engine.CompleteTask(id)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("need a task id or --date")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "xp %d  level %d  streak %d\n",
				snap.XP, snap.Level, snap.Streak)
			printAchievements(cmd, snap.NewAchievements)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "complete every task due on this date (YYYY-MM-DD)")
	return cmd
}

// NewRecallCommand creates the recall command.
func NewRecallCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recall <task-id>",
		Short: "Bring a completed task back to active (XP stays earned)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			id, err := resolveID(session.Engine.Snapshot().Tasks, args[0])
			if err != nil {
				return err
			}
			if _, err := session.Engine.RecallTask(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recalled %s\n", shortID(id))
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <date>",
		Short: "Delete every task due on a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.ParseInLocation(clock.DayFormat, args[0], time.Local)
			if err != nil {
				return fmt.Errorf("unrecognized date %q: %w", args[0], err)
			}

			session, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			before := len(session.Engine.Snapshot().Tasks)
			snap, err := session.Engine.DeleteTasksByDate(day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d task(s)\n", before-len(snap.Tasks))
			return nil
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show XP, level, streak, and achievements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(rootOpts)
			if err != nil {
				return err
			}
			defer session.Close()

			snap := session.Engine.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "xp      %d\n", snap.XP)
			fmt.Fprintf(out, "level   %d\n", snap.Level)
			fmt.Fprintf(out, "streak  %d day(s)\n", snap.Streak)

			active := 0
			for _, t := range snap.Tasks {
				if !t.Completed() {
					active++
				}
			}
			fmt.Fprintf(out, "tasks   %d active / %d total\n", active, len(snap.Tasks))

			if len(snap.Achievements) > 0 {
				fmt.Fprintln(out, "achievements:")
				for _, key := range snap.Achievements {
					printAchievementLine(out, key)
				}
			}
			return nil
		},
	}
}
