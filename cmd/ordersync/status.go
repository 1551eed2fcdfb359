package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/ordersync/internal/bootstrap"
	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/service"
)

func init() {
	var output string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect and change synced order statuses",
	}
	statusCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")

	statusCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every synced order status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				all := infra.Sync.GetSyncedOrderStatuses(cmd.Context())
				rows := make([]repository.SyncedOrderStatus, 0, len(all))
				for _, s := range all {
					rows = append(rows, s)
				}
				sort.Slice(rows, func(i, j int) bool { return rows[i].OrderID < rows[j].OrderID })
				return printStatuses(cmd.OutOrStdout(), output, rows)
			})
		},
	})

	statusCmd.AddCommand(&cobra.Command{
		Use:   "get <order-id>",
		Short: "Show the synced status of one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				s, ok := infra.Sync.GetSyncedOrderStatus(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("order %q: %w", args[0], service.ErrNotFound)
				}
				return printStatuses(cmd.OutOrStdout(), output, []repository.SyncedOrderStatus{s})
			})
		},
	})

	statusCmd.AddCommand(&cobra.Command{
		Use:   "latest",
		Short: "Show the most recently updated order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				s, ok := infra.Sync.GetLatestSyncedOrderStatus(cmd.Context())
				if !ok {
					return fmt.Errorf("no synced orders: %w", service.ErrNotFound)
				}
				return printStatuses(cmd.OutOrStdout(), output, []repository.SyncedOrderStatus{s})
			})
		},
	})

	var force bool
	setCmd := &cobra.Command{
		Use:       "set <order-id> <status>",
		Short:     "Set the status of an order and mirror it into the legacy list",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"preparing", "ready", "onTheWay", "delivered"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return service.ErrOrderIDRequired
			}
			key, err := service.ParseStatusKey(args[1])
			if err != nil && !force {
				return fmt.Errorf("%q: %w (use --force to store it anyway)", args[1], err)
			}
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				if err := infra.Sync.SetSyncedOrderStatus(cmd.Context(), args[0], key); err != nil {
					return err
				}
				s, _ := infra.Sync.GetSyncedOrderStatus(cmd.Context(), args[0])
				return printStatuses(cmd.OutOrStdout(), output, []repository.SyncedOrderStatus{s})
			})
		},
	}
	setCmd.Flags().BoolVar(&force, "force", false, "Store status keys outside the known four")
	statusCmd.AddCommand(setCmd)

	rootCmd.AddCommand(statusCmd)
}

func printStatuses(w io.Writer, format string, rows []repository.SyncedOrderStatus) error {
	if format != "table" {
		return printStructured(w, format, rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tLEGACY\tUPDATED")
	for _, s := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.OrderID, s.StatusKey, service.NormalizeLegacyStatus(s.StatusKey), s.UpdatedAt)
	}
	return tw.Flush()
}
