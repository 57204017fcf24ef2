package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskbot/internal/config"
	"taskbot/internal/database"
)

// NewTasksCmd creates the tasks command with list and purge subcommands
func NewTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and maintain stored tasks",
	}
	cmd.AddCommand(newTasksListCmd())
	cmd.AddCommand(newTasksPurgeCmd())
	return cmd
}

func newTasksListCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks of one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}
			repo, closeDB, err := openRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			tasks, err := repo.ListByOwner(context.Background(), userID, nil)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks for this user.")
				return nil
			}
			for _, t := range tasks {
				notified := "-"
				if t.LastNotifiedAt != nil {
					notified = t.LastNotifiedAt.Format("2006-01-02 15:04")
				}
				fmt.Printf("%6d  %-10s  deadline=%-10s  notified=%-16s  %s\n",
					t.ID, t.Status, t.HumanDeadline(), notified, t.Name)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user id (required)")
	return cmd
}

func newTasksPurgeCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all tasks of one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}
			repo, closeDB, err := openRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := repo.DeleteAll(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("purge tasks: %w", err)
			}
			fmt.Printf("Deleted %d task(s).\n", n)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user id (required)")
	return cmd
}

func openRepo() (*database.TaskRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return database.NewTaskRepository(db), func() { _ = db.Close() }, nil
}
