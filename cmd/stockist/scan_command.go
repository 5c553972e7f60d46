package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stockist/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <folder>",
		Short: "Discover product folders and register them as pending records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			folders, err := scan.Discover(args[0], logger)
			if err != nil {
				return err
			}
			items, snapshot, err := scan.Register(cmd.Context(), st, args[0], folders)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(folders))
			for _, folder := range folders {
				category := "-"
				if folder.CategoryID != 0 {
					category = strconv.FormatInt(folder.CategoryID, 10)
				}
				rows = append(rows, []string{
					folder.Name,
					strconv.Itoa(len(folder.Images)),
					category,
					yesNo(folder.Description != ""),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Product", "Images", "Category", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Registered %d pending products (snapshot %d)\n", len(items), snapshot.ID)
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
