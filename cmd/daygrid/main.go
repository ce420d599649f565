package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/daygrid/daygrid/internal/update"
)

var Version = "dev"

func main() {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:     "daygrid",
		Short:   "daygrid - local-first task and daily log tracker",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cfgFile)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.daygrid/config.yaml)")

	rootCmd.AddCommand(serveCmd(&cfgFile))
	rootCmd.AddCommand(exportCmd(&cfgFile))
	rootCmd.AddCommand(importCmd(&cfgFile))
	rootCmd.AddCommand(purgeCmd(&cfgFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runTUI(cfgFile string) error {
	a, err := newApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	a.startBackups()

	model := update.NewModel(a.st, a.syncController())
	model.Theme = a.theme
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("daygrid failed: %w", err)
	}
	return nil
}
