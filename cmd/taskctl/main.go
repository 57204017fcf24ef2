package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskbot/cmd/taskctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskctl",
		Short: "Admin tool for the task reminder bot",
		Long:  "CLI tool for inspecting and maintaining stored tasks",
	}

	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewSendTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
