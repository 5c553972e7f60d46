package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"stockist/internal/catalog"
	"stockist/internal/logging"
	"stockist/internal/scan"
	"stockist/internal/statesync"
	"stockist/internal/store"
	"stockist/internal/uploader"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var sequential bool

	cmd := &cobra.Command{
		Use:   "upload [folder]",
		Short: "Publish products to the remote catalog",
		Long: `Publish products to the remote catalog.

With a folder argument the folder is scanned and its products uploaded in
one pass. Without one, all pending records from earlier scans are uploaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return errors.New("another stockist upload is already running")
			}
			defer func() { _ = lock.Unlock() }()

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if reset, err := st.ResetStuckProcessing(cmd.Context()); err != nil {
				return err
			} else if reset > 0 {
				logger.Info("reset interrupted records to pending", logging.Int64("count", reset))
			}

			var items []*uploader.Item
			if len(args) == 1 {
				folders, err := scan.Discover(args[0], logger)
				if err != nil {
					return err
				}
				items, _, err = scan.Register(cmd.Context(), st, args[0], folders)
				if err != nil {
					return err
				}
			} else {
				items, err = pendingItems(cmd, st, logger)
				if err != nil {
					return err
				}
			}
			if len(items) == 0 {
				return errors.New("nothing to upload; run `stockist scan` first")
			}

			runCfg := uploader.RunConfigFrom(cfg)
			if sequential {
				runCfg.Concurrent = false
			}

			client := catalog.NewClient(cfg.Site, catalog.WithLogger(logger))
			syncer := statesync.New(st, st, logger)
			engine := uploader.NewEngine(client, syncer, uploader.NewLogSink(logger), runCfg, logger)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)
			go func() {
				if _, ok := <-stop; ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "stopping after in-flight items...")
					engine.Cancel()
				}
			}()

			summary, err := engine.Run(cmd.Context(), items)
			if err != nil {
				return err
			}
			printSummary(cmd, items, summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sequential, "sequential", false, "Process items one at a time regardless of configuration")
	return cmd
}

// pendingItems rebuilds upload items from pending records, re-reading each
// record's source folder for images. Records whose folder went missing are
// skipped with a warning.
func pendingItems(cmd *cobra.Command, st *store.Store, logger *slog.Logger) ([]*uploader.Item, error) {
	records, err := st.ListRecords(cmd.Context(), store.StatusPending)
	if err != nil {
		return nil, err
	}

	items := make([]*uploader.Item, 0, len(records))
	for _, record := range records {
		folder, err := scan.ReadFolder(record.SourcePath)
		if err != nil || len(folder.Images) == 0 {
			logger.Warn("skipping record with unreadable source folder",
				logging.String(logging.FieldItemID, record.ID),
				logging.String("folder", record.SourcePath),
				logging.Error(err),
			)
			continue
		}
		items = append(items, &uploader.Item{
			ID:          record.ID,
			SourcePath:  record.SourcePath,
			ProductName: record.Name,
			Description: record.Description,
			CategoryID:  record.CategoryID,
			ImagePaths:  folder.Images,
			Status:      record.Status,
		})
	}
	return items, nil
}

func printSummary(cmd *cobra.Command, items []*uploader.Item, summary uploader.Summary) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		status := string(item.Status)
		if status == "" {
			status = string(store.StatusPending)
		}
		rows = append(rows, []string{item.ProductName, status})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Product", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "Uploaded %s of %s products\n",
		strconv.Itoa(summary.SuccessCount), strconv.Itoa(summary.TotalCount))
	if summary.Stopped {
		fmt.Fprintln(out, "Run was cancelled before all items started")
	}
}
