package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stockist/internal/store"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List product records",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var statuses []store.Status
			if filter := strings.TrimSpace(statusFilter); filter != "" {
				status := store.Status(filter)
				if !store.ValidStatus(status) {
					return fmt.Errorf("unknown status %q", filter)
				}
				statuses = append(statuses, status)
			}

			records, err := st.ListRecords(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				productID := "-"
				if record.RemoteProductID != 0 {
					productID = strconv.FormatInt(record.RemoteProductID, 10)
				}
				detail := record.ProductURL
				if record.Status == store.StatusFailed && record.ErrorMessage != "" {
					detail = record.ErrorMessage
				}
				rows = append(rows, []string{
					record.Name,
					string(record.Status),
					productID,
					truncate(detail, 60),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Product", "Status", "Remote ID", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show records with this status (pending, processing, completed, failed)")
	cmd.AddCommand(newRecordsClearCommand(ctx))
	return cmd
}

func newRecordsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed or failed records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted == clearFailed {
				return errors.New("specify exactly one of --completed or --failed")
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if clearCompleted {
				removed, err := st.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d completed records\n", removed)
				return nil
			}
			removed, err := st.ClearFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared %d failed records\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed records")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed records")
	return cmd
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
