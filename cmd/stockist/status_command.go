package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record counts per lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := st.Summary(cmd.Context())
			if err != nil {
				return err
			}
			snapshots, err := st.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Pending", strconv.Itoa(summary.Pending)},
				{"Processing", strconv.Itoa(summary.Processing)},
				{"Completed", strconv.Itoa(summary.Completed)},
				{"Failed", strconv.Itoa(summary.Failed)},
				{"Total", strconv.Itoa(summary.Total)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Count"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Batch snapshots: %d\n", len(snapshots))
			return nil
		},
	}
}
