package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/budget"
	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/task"
)

func parseIDArg(arg string) (uint, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(n), nil
}

func runProjectSummary(cmd *cobra.Command, configPath, arg string) error {
	out := cmd.OutOrStdout()

	id, err := parseIDArg(arg)
	if err != nil {
		return err
	}

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	counts, err := server.StatusSummary(gormDB, id)
	if err != nil {
		return err
	}
	rollup, err := budget.Rollup(gormDB, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Tasks: %d total (%d pending, %d in progress, %d completed, %d on hold)\n",
		counts.Total, counts.Pending, counts.InProgress, counts.Completed, counts.OnHold)
	if rollup.BudgetSet {
		fmt.Fprintf(out, "Budget: %.2f, used %.2f, variance %.2f (%.1f%% utilized)\n",
			rollup.Budget, rollup.Used, rollup.Variance, rollup.Utilization)
	} else {
		fmt.Fprintf(out, "Budget: unset, used %.2f\n", rollup.Used)
	}
	return nil
}

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskStatusCmd())
	cmd.AddCommand(newTaskDepCmd())
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var configPath string
	var projectID uint
	var description, priority, recurrence string
	var deadline string
	var assignedTo uint
	var budgetFlag float64

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task in Pending status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			due, err := parseDateFlag(deadline)
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := task.CreateOpts{
				ProjectID:   projectID,
				Title:       args[0],
				Description: description,
				Priority:    priority,
				Recurrence:  recurrence,
				Deadline:    due,
			}
			if assignedTo != 0 {
				opts.AssignedTo = &assignedTo
			}
			if cmd.Flags().Changed("budget") {
				opts.Budget = &budgetFlag
			}

			t, err := task.Create(gormDB, operatorActor(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Created task %q (id %d) in project %d\n", t.Title, t.ID, t.ProjectID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().UintVarP(&projectID, "project", "p", 0, "project ID (required)")
	cmd.MarkFlagRequired("project")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (High, Medium, Low)")
	cmd.Flags().StringVar(&recurrence, "recurrence", "", "recurrence (Daily, Weekly, Monthly)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().UintVar(&assignedTo, "assign", 0, "assignee user ID")
	cmd.Flags().Float64Var(&budgetFlag, "budget", 0, "task budget")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var configPath string
	var projectID, assignedTo uint
	var status, priority string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			tasks, err := task.List(gormDB, task.ListFilters{
				ProjectID:  projectID,
				Status:     status,
				Priority:   priority,
				AssignedTo: assignedTo,
			})
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}

			fmt.Fprintf(out, "%-5s %-30s %-12s %-8s %s\n", "ID", "TITLE", "STATUS", "PRIO", "DEADLINE")
			for _, t := range tasks {
				due := "-"
				if t.Deadline != nil {
					due = t.Deadline.Format("2006-01-02")
				}
				fmt.Fprintf(out, "%-5d %-30s %-12s %-8s %s\n", t.ID, t.Title, t.Status, t.Priority, due)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().UintVarP(&projectID, "project", "p", 0, "filter by project ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().UintVar(&assignedTo, "assignee", 0, "filter by assignee user ID")
	return cmd
}

func newTaskStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to a new status",
		Long:  "Moves a task. Completing a task requires all its direct dependencies to be Completed; completing a recurring task also creates its successor.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			result, err := task.Transition(gormDB, id, args[1], operatorActor())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Task %d is now %s\n", result.Task.ID, result.Task.Status)
			if result.Successor != nil {
				fmt.Fprintf(out, "Created recurring successor (id %d)\n", result.Successor.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}

func newTaskDepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Task dependency commands",
	}

	cmd.AddCommand(newTaskDepAddCmd())
	cmd.AddCommand(newTaskDepRemoveCmd())
	cmd.AddCommand(newTaskDepListCmd())
	return cmd
}

func newTaskDepAddCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "add <task-id> <depends-on-id>",
		Short: "Record that a task depends on another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			dependsOn, err := parseIDArg(args[1])
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if err := task.AddDep(gormDB, taskID, dependsOn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d now depends on task %d\n", taskID, dependsOn)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}

func newTaskDepRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <task-id> <depends-on-id>",
		Short: "Remove a dependency edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			dependsOn, err := parseIDArg(args[1])
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if err := task.RemoveDep(gormDB, taskID, dependsOn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed dependency %d -> %d\n", taskID, dependsOn)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}

func newTaskDepListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "Show a task's blockers and dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			taskID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			blockers, dependents, err := task.ListDeps(gormDB, taskID)
			if err != nil {
				return err
			}
			canComplete, err := task.CanComplete(gormDB, taskID)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Task %d depends on %d task(s):\n", taskID, len(blockers))
			for _, d := range blockers {
				fmt.Fprintf(out, "  -> %d\n", d.DependsOnTaskID)
			}
			fmt.Fprintf(out, "%d task(s) depend on it:\n", len(dependents))
			for _, d := range dependents {
				fmt.Fprintf(out, "  <- %d\n", d.TaskID)
			}
			if canComplete {
				fmt.Fprintln(out, "All dependencies met; task can be completed.")
			} else {
				fmt.Fprintln(out, "Dependencies unmet; task cannot be completed yet.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}
