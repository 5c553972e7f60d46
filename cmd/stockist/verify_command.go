package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stockist/internal/catalog"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var listCategories bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check connectivity and credentials against the remote catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			client := catalog.NewClient(cfg.Site, catalog.WithLogger(logger))
			if err := client.TestConnection(cmd.Context()); err != nil {
				return fmt.Errorf("catalog unreachable: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected to %s\n", client.BaseURL())

			if !listCategories {
				return nil
			}
			categories, err := client.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(categories))
			for _, category := range categories {
				rows = append(rows, []string{
					strconv.FormatInt(category.ID, 10),
					category.Name,
					category.Slug,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Slug"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&listCategories, "categories", false, "Also list the remote product categories")
	return cmd
}
