package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/ordersync/internal/bootstrap"
	"github.com/creamcroissant/ordersync/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive order status board",
	Long:  "Launch a terminal UI that lists synced order statuses and lets an operator change them.",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
		model := tui.NewModel(infra.Sync, infra.Legacy)

		p := tea.NewProgram(
			model,
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	})
}
