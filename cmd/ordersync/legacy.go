package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/ordersync/internal/bootstrap"
)

func init() {
	var output string
	legacyCmd := &cobra.Command{
		Use:   "legacy",
		Short: "Inspect or seed the legacy orders list",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List legacy order records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				orders, err := infra.Legacy.List(cmd.Context())
				if err != nil {
					return err
				}
				if output != "table" {
					records := make([]any, 0, len(orders))
					for _, o := range orders {
						var rec any
						if err := json.Unmarshal(o.Raw, &rec); err != nil {
							return fmt.Errorf("decode legacy order %s: %w", o.ID, err)
						}
						records = append(records, rec)
					}
					return printStructured(cmd.OutOrStdout(), output, records)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tTRACKING\tUPDATED")
				for _, o := range orders {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Status, o.TrackingStatus, o.UpdatedAt)
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	legacyCmd.AddCommand(listCmd)

	legacyCmd.AddCommand(&cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the legacy orders list with a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				if err := infra.Legacy.Replace(cmd.Context(), raw); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bytes into %q\n", len(raw), infra.Legacy.Key())
				return nil
			})
		},
	})

	rootCmd.AddCommand(legacyCmd)
}
