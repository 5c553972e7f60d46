package statesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stockist/internal/logging"
	"stockist/internal/retry"
	"stockist/internal/store"
	"stockist/internal/uploader"
)

// PrimaryStore is the per-item record surface the synchronizer writes to.
// *store.Store satisfies it.
type PrimaryStore interface {
	MarkProcessing(ctx context.Context, id string) error
	UpdateRecordResult(ctx context.Context, id string, update store.RecordUpdate) error
	SetRecordStatus(ctx context.Context, id string, status store.Status) error
	GetRecord(ctx context.Context, id string) (*store.Record, error)
}

// SnapshotStore is the batch snapshot surface. *store.Store satisfies it.
type SnapshotStore interface {
	SnapshotsContaining(ctx context.Context, itemID string) ([]*store.Snapshot, error)
	UpdateSnapshotItems(ctx context.Context, id int64, items []store.SnapshotItem) error
}

// Synchronizer makes pipeline outcomes durable in the primary store and in
// every batch snapshot embedding the item. Primary writes are verified by
// reading the record back; exhausted retries fall back to an emergency
// status-only write. A failed write never downgrades the upload outcome;
// discrepancies are logged, not propagated.
type Synchronizer struct {
	primary   PrimaryStore
	snapshots SnapshotStore
	logger    *slog.Logger

	primaryPolicy  retry.Policy
	snapshotPolicy retry.Policy

	// snapshotMu serializes snapshot read-modify-write cycles across
	// workers. Without it two finalizations of items in the same snapshot
	// overwrite each other's entries.
	snapshotMu sync.Mutex
}

// Option customizes the synchronizer.
type Option func(*Synchronizer)

// WithPrimaryPolicy overrides the primary-write retry schedule.
func WithPrimaryPolicy(policy retry.Policy) Option {
	return func(s *Synchronizer) {
		s.primaryPolicy = policy
	}
}

// WithSnapshotPolicy overrides the per-snapshot retry schedule.
func WithSnapshotPolicy(policy retry.Policy) Option {
	return func(s *Synchronizer) {
		s.snapshotPolicy = policy
	}
}

// New builds a synchronizer over the given stores.
func New(primary PrimaryStore, snapshots SnapshotStore, logger *slog.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Synchronizer{
		primary:        primary,
		snapshots:      snapshots,
		logger:         logging.NewComponentLogger(logger, "statesync"),
		primaryPolicy:  retry.Linear(3, 500*time.Millisecond),
		snapshotPolicy: retry.Linear(3, 250*time.Millisecond),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkProcessing records that a worker took the item.
func (s *Synchronizer) MarkProcessing(ctx context.Context, item *uploader.Item) error {
	return s.primary.MarkProcessing(ctx, item.ID)
}

// Finalize writes the terminal outcome: the primary record first (retried
// and verified), then every snapshot embedding the item. The returned error
// describes persistence trouble for logging only; callers must not use it
// to change the upload result.
func (s *Synchronizer) Finalize(ctx context.Context, item *uploader.Item, result *uploader.Result) error {
	update := buildUpdate(item, result)

	primaryErr := s.writePrimary(ctx, item.ID, update)
	if primaryErr != nil {
		s.emergencyWrite(ctx, item.ID, update.Status, primaryErr)
	}

	snapshotErr := s.propagate(ctx, item.ID, update)
	return errors.Join(primaryErr, snapshotErr)
}

func buildUpdate(item *uploader.Item, result *uploader.Result) store.RecordUpdate {
	update := store.RecordUpdate{
		Status:       item.Status,
		ErrorMessage: result.ErrorMessage(),
	}
	if result.Succeeded() {
		update.Status = store.StatusCompleted
		update.SKU = result.SKU
		update.RemoteProductID = result.ProductID
		update.ProductURL = result.ProductURL
		update.UploadSuccess = true
		uploadedAt := result.UploadedAt
		update.UploadedAt = &uploadedAt
	} else if update.Status != store.StatusFailed {
		update.Status = store.StatusFailed
	}
	return update
}

// writePrimary attempts the full record update with read-after-write
// verification on every attempt.
func (s *Synchronizer) writePrimary(ctx context.Context, id string, update store.RecordUpdate) error {
	return s.primaryPolicy.Do(ctx, nil, func(attempt int) error {
		if err := s.primary.UpdateRecordResult(ctx, id, update); err != nil {
			s.logger.Warn("record write failed",
				logging.String(logging.FieldItemID, id),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(err),
			)
			return err
		}
		record, err := s.primary.GetRecord(ctx, id)
		if err != nil {
			return fmt.Errorf("verify record write: %w", err)
		}
		if record.Status != update.Status || record.RemoteProductID != update.RemoteProductID {
			return fmt.Errorf("verify record write: store has status=%s product=%d, wrote status=%s product=%d",
				record.Status, record.RemoteProductID, update.Status, update.RemoteProductID)
		}
		return nil
	})
}

// emergencyWrite drops to a minimal status-only update after the full write
// exhausted its retries. If even that fails the discrepancy is logged at
// the highest severity and swallowed.
func (s *Synchronizer) emergencyWrite(ctx context.Context, id string, status store.Status, cause error) {
	if err := s.primary.SetRecordStatus(ctx, id, status); err != nil {
		s.logger.Error("record unreachable, terminal status lost",
			logging.String(logging.FieldEventType, "persistence_discrepancy"),
			logging.String(logging.FieldItemID, id),
			logging.String("status", string(status)),
			logging.Error(errors.Join(cause, err)),
		)
		return
	}
	s.logger.Error("full record write failed, emergency status-only write applied",
		logging.String(logging.FieldEventType, "persistence_degraded"),
		logging.String(logging.FieldItemID, id),
		logging.String("status", string(status)),
		logging.Error(cause),
	)
}

// propagate patches the item's entry inside every snapshot that embeds it,
// with an independent bounded retry per snapshot. The whole cycle runs
// under snapshotMu so concurrent finalizations of items sharing a snapshot
// cannot clobber each other's entries.
func (s *Synchronizer) propagate(ctx context.Context, itemID string, update store.RecordUpdate) error {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()

	snapshots, err := s.snapshots.SnapshotsContaining(ctx, itemID)
	if err != nil {
		return fmt.Errorf("list snapshots for %s: %w", itemID, err)
	}

	var failed []error
	for _, snapshot := range snapshots {
		snapshotID := snapshot.ID
		err := s.snapshotPolicy.Do(ctx, nil, func(attempt int) error {
			return s.patchSnapshot(ctx, snapshotID, itemID, update)
		})
		if err != nil {
			s.logger.Error("snapshot update failed",
				logging.String(logging.FieldEventType, "persistence_discrepancy"),
				logging.String(logging.FieldItemID, itemID),
				logging.Int64("snapshot_id", snapshotID),
				logging.Error(err),
			)
			failed = append(failed, fmt.Errorf("snapshot %d: %w", snapshotID, err))
		}
	}
	return errors.Join(failed...)
}

// patchSnapshot reloads one snapshot, patches the item's entry, and writes
// the item list back. Reloading on every attempt keeps a retried write from
// resurrecting entries a previous finalization already replaced.
func (s *Synchronizer) patchSnapshot(ctx context.Context, snapshotID int64, itemID string, update store.RecordUpdate) error {
	snapshots, err := s.snapshots.SnapshotsContaining(ctx, itemID)
	if err != nil {
		return fmt.Errorf("reload snapshot %d: %w", snapshotID, err)
	}
	var current *store.Snapshot
	for _, snapshot := range snapshots {
		if snapshot.ID == snapshotID {
			current = snapshot
			break
		}
	}
	if current == nil {
		// Snapshot removed between listing and patching.
		return nil
	}

	patched := false
	for i := range current.Items {
		if current.Items[i].ItemID != itemID {
			continue
		}
		current.Items[i].Status = update.Status
		current.Items[i].RemoteProductID = update.RemoteProductID
		current.Items[i].ProductURL = update.ProductURL
		current.Items[i].ErrorMessage = update.ErrorMessage
		if update.UploadedAt != nil {
			current.Items[i].UploadedAt = update.UploadedAt.UTC().Format(time.RFC3339)
		}
		patched = true
	}
	if !patched {
		return nil
	}
	return s.snapshots.UpdateSnapshotItems(ctx, snapshotID, current.Items)
}
