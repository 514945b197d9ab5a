package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/models"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var configPath string
	var profile auth.ProfileOpts

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Register a new user",
		Long:  "Registers a user, prompting for a password. The first user becomes an Admin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, configPath, args[0], profile)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().StringVar(&profile.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&profile.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&profile.Email, "email", "", "email address")
	cmd.Flags().StringVar(&profile.Company, "company", "", "company")
	cmd.Flags().StringVar(&profile.JobTitle, "job-title", "", "job title")
	cmd.Flags().StringVar(&profile.Department, "department", "", "department")
	cmd.Flags().StringVar(&profile.Phone, "phone", "", "phone number")
	return cmd
}

func runUserAdd(cmd *cobra.Command, configPath, username string, profile auth.ProfileOpts) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	password, err := promptPassword(out)
	if err != nil {
		return err
	}

	user, err := auth.Register(gormDB, username, password, profile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

// promptPassword reads a password twice without echo and checks both entries
// match.
func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	if strings.TrimSpace(string(first)) == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(first), nil
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}

func runUserList(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var users []models.User
	if err := gormDB.Order("id ASC").Find(&users).Error; err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users registered.")
		return nil
	}

	fmt.Fprintf(out, "%-5s %-20s %-8s %s\n", "ID", "USERNAME", "ROLE", "NAME")
	for _, u := range users {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		fmt.Fprintf(out, "%-5d %-20s %-8s %s\n", u.ID, u.Username, u.Role, name)
	}
	return nil
}
