package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/policy"
	"github.com/taskdeck/taskdeck/internal/project"
)

// operatorActor is the actor used by local CLI commands. The CLI runs against
// the store directly, so it acts with admin rights on behalf of the operator.
func operatorActor() policy.Actor {
	return policy.Actor{UserID: 0, Role: models.RoleAdmin}
}

// parseDateFlag parses a YYYY-MM-DD flag value, treating empty as unset.
func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return &t, nil
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectSummaryCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var configPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and everything it owns",
		Long:  "Deletes a project with all its tasks, dependencies, subtasks, comments, attachments, team rows, and discussions in one transaction.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			if !force {
				fmt.Fprintf(out, "This deletes project %d and all of its tasks. Continue? [y/N] ", id)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if strings.ToLower(strings.TrimSpace(answer)) != "y" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if err := project.Delete(gormDB, operatorActor(), id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted project %d.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var configPath string
	var description string
	var startDate, endDate string
	var budget float64
	var ownerID uint

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			start, err := parseDateFlag(startDate)
			if err != nil {
				return err
			}
			end, err := parseDateFlag(endDate)
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := project.CreateOpts{
				Name:        args[0],
				Description: description,
				StartDate:   start,
				EndDate:     end,
				OwnerID:     ownerID,
			}
			if cmd.Flags().Changed("budget") {
				opts.Budget = &budget
			}

			p, err := project.Create(gormDB, operatorActor(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Created project %q (id %d)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "project budget")
	cmd.Flags().UintVar(&ownerID, "owner", 0, "owner user ID")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			projects, err := project.ListVisible(gormDB, operatorActor())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}

			fmt.Fprintf(out, "%-5s %-30s %-8s %s\n", "ID", "NAME", "OWNER", "BUDGET")
			for _, p := range projects {
				budget := "-"
				if p.Budget != nil {
					budget = fmt.Sprintf("%.2f", *p.Budget)
				}
				fmt.Fprintf(out, "%-5d %-30s %-8d %s\n", p.ID, p.Name, p.OwnerID, budget)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}

func newProjectSummaryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "summary <project-id>",
		Short: "Show task status counts and budget rollup for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectSummary(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}
