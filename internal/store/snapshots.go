package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSnapshotNotFound indicates no batch snapshot exists for the given id.
var ErrSnapshotNotFound = errors.New("batch snapshot not found")

// SaveSnapshot stores a named batch snapshot and returns it with its
// assigned id.
func (s *Store) SaveSnapshot(ctx context.Context, name string, items []SnapshotItem) (*Snapshot, error) {
	if len(items) == 0 {
		return nil, errors.New("snapshot has no items")
	}
	blob, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot items: %w", err)
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO batch_snapshots (name, items_json, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, string(blob), timestamp, timestamp)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Snapshot{ID: id, Name: name, Items: items, CreatedAt: now, UpdatedAt: now}, nil
}

// GetSnapshot fetches a snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, name, items_json, created_at, updated_at FROM batch_snapshots WHERE id = ?`, id)
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snapshot, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, name, items_json, created_at, updated_at FROM batch_snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// SnapshotsContaining returns every snapshot whose item list embeds the
// given item id.
func (s *Store) SnapshotsContaining(ctx context.Context, itemID string) ([]*Snapshot, error) {
	snapshots, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*Snapshot
	for _, snapshot := range snapshots {
		for _, item := range snapshot.Items {
			if item.ItemID == itemID {
				matched = append(matched, snapshot)
				break
			}
		}
	}
	return matched, nil
}

// UpdateSnapshotItems rewrites a snapshot's item list in place.
func (s *Store) UpdateSnapshotItems(ctx context.Context, id int64, items []SnapshotItem) error {
	blob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal snapshot items: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE batch_snapshots SET items_json = ?, updated_at = ? WHERE id = ?`,
		string(blob), timestamp, id)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update snapshot: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
	}
	return nil
}

func scanSnapshot(scanner interface{ Scan(dest ...any) error }) (*Snapshot, error) {
	var (
		id         int64
		name       string
		itemsJSON  string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &name, &itemsJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	snapshot := &Snapshot{ID: id, Name: name}
	if err := json.Unmarshal([]byte(itemsJSON), &snapshot.Items); err != nil {
		return nil, fmt.Errorf("decode snapshot %d items: %w", id, err)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		snapshot.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		snapshot.UpdatedAt = updated
	}
	return snapshot, nil
}
