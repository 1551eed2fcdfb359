package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/ordersync/internal/bootstrap"
)

func init() {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and trigger background jobs",
	}

	jobCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				scheduler, err := newScheduler(infra)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSCHEDULE")
				for _, e := range scheduler.Entries() {
					fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Spec)
				}
				return tw.Flush()
			})
		},
	})

	jobCmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run a job once in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInfra(cmd.Context(), false, func(infra *bootstrap.Infrastructure) error {
				scheduler, err := newScheduler(infra)
				if err != nil {
					return err
				}
				if err := scheduler.RunNow(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "job %s finished\n", args[0])
				return nil
			})
		},
	})

	rootCmd.AddCommand(jobCmd)
}
