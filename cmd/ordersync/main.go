package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/ordersync/internal/config"
	"github.com/creamcroissant/ordersync/internal/support/logging"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configFile string
	appConfig  *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ordersync",
	Short:         "Order status sync service",
	Long:          `ordersync keeps the latest fulfilment status of each order and mirrors it into the legacy orders list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := config.LoadWith(config.LoadOptions{File: configFile})
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appConfig = cfg
		logger = logging.New(logging.Options{
			Level:     cfg.Log.SlogLevel(),
			Format:    cfg.Log.Format,
			AddSource: cfg.Log.AddSource,
			Output:    os.Stderr,
		})
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml or /etc/ordersync/config.yaml)")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ordersync %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
