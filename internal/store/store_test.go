package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"stockist/internal/store"
	"stockist/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	record := testsupport.NewRecord(t, st, "item-1", "Ceramic Vase")
	if record.Status != store.StatusPending {
		t.Fatalf("new record status = %q, want pending", record.Status)
	}

	fetched, err := st.GetRecord(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if fetched.Name != "Ceramic Vase" || fetched.Status != store.StatusPending {
		t.Fatalf("unexpected fetched record: %#v", fetched)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	st.Close()

	// Re-open works against the same file.
	again, err := store.OpenPath(cfg.StorePath())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()

	db, err := sql.Open("sqlite", cfg.StorePath())
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = version + 1"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := store.OpenPath(cfg.StorePath()); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestGetRecordMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.GetRecord(context.Background(), "nope")
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestUpdateRecordResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Ceramic Vase")

	uploaded := time.Now().UTC().Truncate(time.Second)
	update := store.RecordUpdate{
		Status:          store.StatusCompleted,
		SKU:             "91814278",
		RemoteProductID: 42,
		ProductURL:      "https://shop.example/p/ceramic-vase",
		UploadSuccess:   true,
		UploadedAt:      &uploaded,
	}
	if err := st.UpdateRecordResult(ctx, "item-1", update); err != nil {
		t.Fatalf("UpdateRecordResult: %v", err)
	}

	record, err := st.GetRecord(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if record.Status != store.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.RemoteProductID != 42 || record.ProductURL != update.ProductURL {
		t.Fatalf("remote fields not persisted: %#v", record)
	}
	if !record.UploadSuccess {
		t.Fatal("upload_success not persisted")
	}
	if record.UploadedAt == nil || !record.UploadedAt.Equal(uploaded) {
		t.Fatalf("uploaded_at = %v, want %v", record.UploadedAt, uploaded)
	}
}

func TestUpdateRecordResultUnknownID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	err := st.UpdateRecordResult(context.Background(), "ghost", store.RecordUpdate{Status: store.StatusFailed})
	if !errors.Is(err, store.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestUpdateRecordResultRejectsInvalidStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.NewRecord(t, st, "item-1", "Vase")
	err := st.UpdateRecordResult(context.Background(), "item-1", store.RecordUpdate{Status: "exploded"})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestSetRecordStatusEmergencyWrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Vase")

	if err := st.SetRecordStatus(ctx, "item-1", store.StatusFailed); err != nil {
		t.Fatalf("SetRecordStatus: %v", err)
	}
	record, err := st.GetRecord(ctx, "item-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if record.Status != store.StatusFailed {
		t.Fatalf("status = %q, want failed", record.Status)
	}
	if record.ErrorMessage != "" || record.RemoteProductID != 0 {
		t.Fatalf("status-only write touched other columns: %#v", record)
	}
}

func TestListRecordsFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Vase")
	testsupport.NewRecord(t, st, "item-2", "Bowl")
	testsupport.NewRecord(t, st, "item-3", "Mug")
	if err := st.SetRecordStatus(ctx, "item-2", store.StatusCompleted); err != nil {
		t.Fatal(err)
	}

	pending, err := st.ListRecords(ctx, store.StatusPending)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending count = %d, want 2", len(pending))
	}

	all, err := st.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("total count = %d, want 3", len(all))
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Vase")
	testsupport.NewRecord(t, st, "item-2", "Bowl")
	testsupport.NewRecord(t, st, "item-3", "Mug")
	if err := st.MarkProcessing(ctx, "item-1"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetRecordStatus(ctx, "item-2", store.StatusCompleted); err != nil {
		t.Fatal(err)
	}

	reset, err := st.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}
	record, err := st.GetRecord(ctx, "item-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != store.StatusPending {
		t.Fatalf("status = %q, want pending", record.Status)
	}
	completed, err := st.GetRecord(ctx, "item-2")
	if err != nil {
		t.Fatal(err)
	}
	if completed.Status != store.StatusCompleted {
		t.Fatalf("completed record touched: %q", completed.Status)
	}
}

func TestClearRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Vase")
	testsupport.NewRecord(t, st, "item-2", "Bowl")
	testsupport.NewRecord(t, st, "item-3", "Mug")
	if err := st.SetRecordStatus(ctx, "item-1", store.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if err := st.SetRecordStatus(ctx, "item-2", store.StatusFailed); err != nil {
		t.Fatal(err)
	}

	removed, err := st.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 1 {
		t.Fatalf("completed removed = %d, want 1", removed)
	}
	removed, err = st.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("failed removed = %d, want 1", removed)
	}
	remaining, err := st.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != "item-3" {
		t.Fatalf("unexpected remaining records: %#v", remaining)
	}
}

func TestSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Vase")
	testsupport.NewRecord(t, st, "item-2", "Bowl")
	if err := st.SetRecordStatus(ctx, "item-1", store.StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if err := st.SetRecordStatus(ctx, "item-2", store.StatusFailed); err != nil {
		t.Fatal(err)
	}

	summary, err := st.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 2 || summary.Completed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	items := []store.SnapshotItem{
		{ItemID: "item-1", Name: "Vase", Status: store.StatusPending},
		{ItemID: "item-2", Name: "Bowl", Status: store.StatusPending},
	}
	snapshot, err := st.SaveSnapshot(ctx, "friday batch", items)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if snapshot.ID == 0 {
		t.Fatal("expected snapshot id to be assigned")
	}

	fetched, err := st.GetSnapshot(ctx, snapshot.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if fetched.Name != "friday batch" || len(fetched.Items) != 2 {
		t.Fatalf("unexpected snapshot: %#v", fetched)
	}
}

func TestSnapshotsContaining(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := []store.SnapshotItem{{ItemID: "item-1", Name: "Vase", Status: store.StatusPending}}
	second := []store.SnapshotItem{
		{ItemID: "item-1", Name: "Vase", Status: store.StatusPending},
		{ItemID: "item-2", Name: "Bowl", Status: store.StatusPending},
	}
	if _, err := st.SaveSnapshot(ctx, "first", first); err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveSnapshot(ctx, "second", second); err != nil {
		t.Fatal(err)
	}

	matched, err := st.SnapshotsContaining(ctx, "item-1")
	if err != nil {
		t.Fatalf("SnapshotsContaining: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("item-1 matched %d snapshots, want 2", len(matched))
	}

	matched, err = st.SnapshotsContaining(ctx, "item-2")
	if err != nil {
		t.Fatalf("SnapshotsContaining: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("item-2 matched %d snapshots, want 1", len(matched))
	}
}

func TestUpdateSnapshotItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	snapshot, err := st.SaveSnapshot(ctx, "batch", []store.SnapshotItem{
		{ItemID: "item-1", Name: "Vase", Status: store.StatusPending},
	})
	if err != nil {
		t.Fatal(err)
	}

	snapshot.Items[0].Status = store.StatusCompleted
	snapshot.Items[0].RemoteProductID = 42
	if err := st.UpdateSnapshotItems(ctx, snapshot.ID, snapshot.Items); err != nil {
		t.Fatalf("UpdateSnapshotItems: %v", err)
	}

	fetched, err := st.GetSnapshot(ctx, snapshot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Items[0].Status != store.StatusCompleted || fetched.Items[0].RemoteProductID != 42 {
		t.Fatalf("snapshot item not updated: %#v", fetched.Items[0])
	}
	if !fetched.UpdatedAt.After(fetched.CreatedAt) && !fetched.UpdatedAt.Equal(fetched.CreatedAt) {
		t.Fatalf("updated_at went backwards: %v < %v", fetched.UpdatedAt, fetched.CreatedAt)
	}
}
