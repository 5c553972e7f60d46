package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRecordNotFound indicates no product record exists for the given id.
var ErrRecordNotFound = errors.New("product record not found")

const recordColumns = "id, name, source_path, description, category_id, status, sku, remote_product_id, product_url, upload_success, error_message, uploaded_at, created_at, updated_at"

// CreateRecord inserts a pending record for a scanned product.
func (s *Store) CreateRecord(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return errors.New("record id is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	status := record.Status
	if status == "" {
		status = StatusPending
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO product_records (
            id, name, source_path, description, category_id, status,
            upload_success, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Name,
		nullableString(record.SourcePath),
		nullableString(record.Description),
		record.CategoryID,
		status,
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	record.Status = status
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

// GetRecord fetches a product record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM product_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// ListRecords returns records, optionally filtered to the given statuses,
// oldest first.
func (s *Store) ListRecords(ctx context.Context, statuses ...Status) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM product_records`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// MarkProcessing transitions a record to processing before its pipeline run.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusProcessing, "mark processing")
}

// UpdateRecordResult writes the full terminal outcome of a pipeline run.
func (s *Store) UpdateRecordResult(ctx context.Context, id string, update RecordUpdate) error {
	if !ValidStatus(update.Status) {
		return fmt.Errorf("invalid status %q", update.Status)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE product_records SET
            status = ?, sku = ?, remote_product_id = ?, product_url = ?,
            upload_success = ?, error_message = ?, uploaded_at = ?, updated_at = ?
        WHERE id = ?`,
		update.Status,
		nullableString(update.SKU),
		nullableInt64(update.RemoteProductID),
		nullableString(update.ProductURL),
		boolToInt(update.UploadSuccess),
		nullableString(update.ErrorMessage),
		nullableTime(update.UploadedAt),
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// SetRecordStatus writes only the status column. This is the emergency path
// used when the full result update keeps failing.
func (s *Store) SetRecordStatus(ctx context.Context, id string, status Status) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.setStatus(ctx, id, status, "set status")
}

func (s *Store) setStatus(ctx context.Context, id string, status Status, operation string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE product_records SET status = ?, updated_at = ? WHERE id = ?`,
		status, timestamp, id)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// ResetStuckProcessing resets records left in processing by an interrupted
// run back to pending so the next upload picks them up again.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE product_records SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending, timestamp, StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("reset stuck records: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes only completed records.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM product_records WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed records.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM product_records WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Summary returns record counts grouped by lifecycle state.
func (s *Store) Summary(ctx context.Context) (StatusSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM product_records GROUP BY status`)
	if err != nil {
		return StatusSummary{}, fmt.Errorf("record summary: %w", err)
	}
	defer rows.Close()

	summary := StatusSummary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatusSummary{}, err
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusProcessing:
			summary.Processing += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id            string
		name          string
		sourcePath    sql.NullString
		description   sql.NullString
		categoryID    sql.NullInt64
		statusStr     string
		sku           sql.NullString
		remoteID      sql.NullInt64
		productURL    sql.NullString
		uploadSuccess sql.NullInt64
		errorMessage  sql.NullString
		uploadedRaw   sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&name,
		&sourcePath,
		&description,
		&categoryID,
		&statusStr,
		&sku,
		&remoteID,
		&productURL,
		&uploadSuccess,
		&errorMessage,
		&uploadedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:              id,
		Name:            name,
		SourcePath:      sourcePath.String,
		Description:     description.String,
		CategoryID:      categoryID.Int64,
		Status:          Status(statusStr),
		SKU:             sku.String,
		RemoteProductID: remoteID.Int64,
		ProductURL:      productURL.String,
		UploadSuccess:   uploadSuccess.Int64 != 0,
		ErrorMessage:    errorMessage.String,
	}
	if uploadedRaw.Valid {
		if uploaded, err := parseTimeString(uploadedRaw.String); err == nil {
			record.UploadedAt = &uploaded
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
