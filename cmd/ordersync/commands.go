package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/ordersync/internal/bootstrap"
	"github.com/creamcroissant/ordersync/internal/config"
	"github.com/creamcroissant/ordersync/internal/migrations"
)

func init() {
	// Migrate
	var migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "SQLite schema migration management",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if appConfig.Storage.Driver != config.DriverSQLite {
				return fmt.Errorf("migrate only applies to the sqlite driver (current: %s)", appConfig.Storage.Driver)
			}
			db, err := bootstrap.OpenSQLite(cmd.Context(), appConfig.Storage.SQLite.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			switch action {
			case "up":
				if err := migrations.Up(db); err != nil {
					return err
				}
			case "down":
				if err := migrations.Down(db); err != nil {
					return err
				}
			case "status":
				return migrations.Status(db)
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
			version, err := migrations.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, appConfig.Storage.SQLite.Path)
			return nil
		},
	}
	rootCmd.AddCommand(migrateCmd)

	// Backup
	var backupDir string
	var backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Write a VACUUM INTO snapshot of the sqlite store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				dir := backupDir
				if dir == "" {
					dir = appConfig.Storage.BackupDir
				}
				dest, err := bootstrap.BackupSQLite(cmd.Context(), infra.Storage.SQLite, dir, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup created at %s\n", dest)
				return nil
			})
		},
	}
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "Backup directory (default: storage.backup_dir)")
	rootCmd.AddCommand(backupCmd)
}

// withInfra opens storage for a one-shot command and closes it afterwards.
func withInfra(ctx context.Context, needToken bool, fn func(infra *bootstrap.Infrastructure) error) error {
	infra, err := bootstrap.BuildInfrastructure(ctx, appConfig, logger, needToken)
	if err != nil {
		return err
	}
	defer infra.Close()
	return fn(infra)
}

// printStructured writes v as JSON or YAML.
func printStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
