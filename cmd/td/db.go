package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/db"
	"gorm.io/gorm"
)

// connectFromConfig loads the config file and opens the store.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	cmd.AddCommand(newDBCheckCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the taskdeck database",
		Long:  "Connects to the configured store and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s store\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "taskdeck database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var configPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate all taskdeck tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, force bool) error {
	out := cmd.OutOrStdout()

	if !force {
		fmt.Fprint(out, "This drops every taskdeck table. Continue? [y/N] ")
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

	if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	fmt.Fprintln(out, "taskdeck database reset.")
	return nil
}

func newDBCheckCmd() *cobra.Command {
	var configPath string
	var repair bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check referential integrity of the store",
		Long:  "Counts tasks whose project no longer exists. With --repair, removes them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBCheck(cmd, configPath, repair)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskdeck.yaml", "path to taskdeck config file")
	cmd.Flags().BoolVar(&repair, "repair", false, "delete orphaned rows")
	return cmd
}

func runDBCheck(cmd *cobra.Command, configPath string, repair bool) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	orphans, err := db.CountOrphanedTasks(gormDB)
	if err != nil {
		return err
	}
	if orphans == 0 {
		fmt.Fprintln(out, "No orphaned tasks found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d orphaned tasks (integrity violation).\n", orphans)
	if !repair {
		return fmt.Errorf("store has %d orphaned tasks; run with --repair to remove them", orphans)
	}

	removed, err := db.DeleteOrphanedTasks(gormDB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d orphaned tasks.\n", removed)
	return nil
}
