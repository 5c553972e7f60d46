package statesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockist/internal/retry"
	"stockist/internal/store"
	"stockist/internal/testsupport"
	"stockist/internal/uploader"
)

// fakePrimary scripts failures for the primary-store write path.
type fakePrimary struct {
	mu      sync.Mutex
	records map[string]*store.Record

	updateFailures int
	updateCalls    int
	statusFailures int
	statusCalls    int
}

func newFakePrimary(ids ...string) *fakePrimary {
	records := make(map[string]*store.Record, len(ids))
	for _, id := range ids {
		records[id] = &store.Record{ID: id, Status: store.StatusPending}
	}
	return &fakePrimary{records: records}
}

func (f *fakePrimary) MarkProcessing(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	record.Status = store.StatusProcessing
	return nil
}

func (f *fakePrimary) UpdateRecordResult(_ context.Context, id string, update store.RecordUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateCalls <= f.updateFailures {
		return errors.New("database is locked")
	}
	record, ok := f.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	record.Status = update.Status
	record.SKU = update.SKU
	record.RemoteProductID = update.RemoteProductID
	record.ProductURL = update.ProductURL
	record.UploadSuccess = update.UploadSuccess
	record.ErrorMessage = update.ErrorMessage
	record.UploadedAt = update.UploadedAt
	return nil
}

func (f *fakePrimary) SetRecordStatus(_ context.Context, id string, status store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusCalls <= f.statusFailures {
		return errors.New("database is locked")
	}
	record, ok := f.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	record.Status = status
	return nil
}

func (f *fakePrimary) GetRecord(_ context.Context, id string) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

// fakeSnapshots scripts failures for snapshot propagation. Reads return
// fresh copies the way the real store unmarshals rows; readDelay widens the
// read-to-write window for the concurrency test.
type fakeSnapshots struct {
	mu             sync.Mutex
	snapshots      []*store.Snapshot
	updateFailures map[int64]int
	updateCalls    map[int64]int
	readDelay      time.Duration
}

func newFakeSnapshots(snapshots ...*store.Snapshot) *fakeSnapshots {
	return &fakeSnapshots{
		snapshots:      snapshots,
		updateFailures: map[int64]int{},
		updateCalls:    map[int64]int{},
	}
}

func (f *fakeSnapshots) SnapshotsContaining(_ context.Context, itemID string) ([]*store.Snapshot, error) {
	f.mu.Lock()
	var matched []*store.Snapshot
	for _, snapshot := range f.snapshots {
		for _, item := range snapshot.Items {
			if item.ItemID == itemID {
				copied := *snapshot
				copied.Items = append([]store.SnapshotItem(nil), snapshot.Items...)
				matched = append(matched, &copied)
				break
			}
		}
	}
	f.mu.Unlock()
	if f.readDelay > 0 {
		time.Sleep(f.readDelay)
	}
	return matched, nil
}

func (f *fakeSnapshots) UpdateSnapshotItems(_ context.Context, id int64, items []store.SnapshotItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls[id]++
	if f.updateCalls[id] <= f.updateFailures[id] {
		return errors.New("disk I/O error")
	}
	for _, snapshot := range f.snapshots {
		if snapshot.ID == id {
			snapshot.Items = items
			return nil
		}
	}
	return store.ErrSnapshotNotFound
}

func fastPolicies() []Option {
	return []Option{
		WithPrimaryPolicy(retry.Linear(3, time.Millisecond)),
		WithSnapshotPolicy(retry.Linear(3, time.Millisecond)),
	}
}

func successResult(itemID string) *uploader.Result {
	return &uploader.Result{
		ItemID:     itemID,
		ProductID:  42,
		ProductURL: "https://shop.example/p/42",
		SKU:        "91814278",
		UploadedAt: time.Now().UTC(),
	}
}

func completedItem(id string) *uploader.Item {
	return &uploader.Item{ID: id, ProductName: "Vase", Status: store.StatusCompleted}
}

func TestFinalizeWritesVerifiedOutcome(t *testing.T) {
	primary := newFakePrimary("item-1")
	snapshots := newFakeSnapshots()
	syncer := New(primary, snapshots, nil, fastPolicies()...)

	err := syncer.Finalize(context.Background(), completedItem("item-1"), successResult("item-1"))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	record := primary.records["item-1"]
	if record.Status != store.StatusCompleted || record.RemoteProductID != 42 || !record.UploadSuccess {
		t.Fatalf("record not updated: %#v", record)
	}
	if primary.statusCalls != 0 {
		t.Fatal("emergency path used on a healthy store")
	}
}

func TestFinalizeRecoversOnThirdAttempt(t *testing.T) {
	primary := newFakePrimary("item-1")
	primary.updateFailures = 2
	syncer := New(primary, newFakeSnapshots(), nil, fastPolicies()...)

	err := syncer.Finalize(context.Background(), completedItem("item-1"), successResult("item-1"))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if primary.updateCalls != 3 {
		t.Fatalf("update calls = %d, want 3", primary.updateCalls)
	}
	if primary.statusCalls != 0 {
		t.Fatal("emergency fallback must not trigger when the third attempt verifies")
	}
	if primary.records["item-1"].Status != store.StatusCompleted {
		t.Fatalf("status = %q, want completed", primary.records["item-1"].Status)
	}
}

func TestFinalizeEmergencyWriteAfterExhaustion(t *testing.T) {
	primary := newFakePrimary("item-1")
	primary.updateFailures = 10
	syncer := New(primary, newFakeSnapshots(), nil, fastPolicies()...)

	item := completedItem("item-1")
	result := successResult("item-1")
	_ = syncer.Finalize(context.Background(), item, result)

	if primary.statusCalls != 1 {
		t.Fatalf("emergency status writes = %d, want 1", primary.statusCalls)
	}
	if primary.records["item-1"].Status != store.StatusCompleted {
		t.Fatalf("emergency write did not land: %#v", primary.records["item-1"])
	}
	// The upload outcome is untouched by bookkeeping trouble.
	if !result.Succeeded() || item.Status != store.StatusCompleted {
		t.Fatal("persistence failure must not downgrade the upload outcome")
	}
}

func TestFinalizeSurvivesTotalPersistenceFailure(t *testing.T) {
	primary := newFakePrimary("item-1")
	primary.updateFailures = 10
	primary.statusFailures = 10
	syncer := New(primary, newFakeSnapshots(), nil, fastPolicies()...)

	item := completedItem("item-1")
	result := successResult("item-1")
	err := syncer.Finalize(context.Background(), item, result)
	if err == nil {
		t.Fatal("expected a persistence error for logging")
	}
	if !result.Succeeded() || item.Status != store.StatusCompleted {
		t.Fatal("upload outcome must survive even a total persistence failure")
	}
}

func TestFinalizePatchesEverySnapshot(t *testing.T) {
	primary := newFakePrimary("item-1")
	snapshots := newFakeSnapshots(
		&store.Snapshot{ID: 1, Items: []store.SnapshotItem{
			{ItemID: "item-1", Name: "Vase", Status: store.StatusPending},
		}},
		&store.Snapshot{ID: 2, Items: []store.SnapshotItem{
			{ItemID: "item-2", Name: "Bowl", Status: store.StatusPending},
			{ItemID: "item-1", Name: "Vase", Status: store.StatusProcessing},
		}},
		&store.Snapshot{ID: 3, Items: []store.SnapshotItem{
			{ItemID: "item-3", Name: "Mug", Status: store.StatusPending},
		}},
	)
	syncer := New(primary, snapshots, nil, fastPolicies()...)

	if err := syncer.Finalize(context.Background(), completedItem("item-1"), successResult("item-1")); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	for _, snapshotID := range []int64{1, 2} {
		snapshot := snapshots.snapshots[snapshotID-1]
		for _, item := range snapshot.Items {
			if item.ItemID != "item-1" {
				continue
			}
			if item.Status != store.StatusCompleted || item.RemoteProductID != 42 {
				t.Fatalf("snapshot %d not patched: %#v", snapshotID, item)
			}
		}
	}
	// Snapshot 3 does not embed the item and must not be rewritten.
	if snapshots.updateCalls[3] != 0 {
		t.Fatal("unrelated snapshot was rewritten")
	}
	// No completed-in-primary / pending-in-snapshot divergence remains.
	for _, snapshot := range snapshots.snapshots {
		for _, item := range snapshot.Items {
			if item.ItemID == "item-1" && item.Status != store.StatusCompleted {
				t.Fatalf("snapshot %d diverges from primary: %#v", snapshot.ID, item)
			}
		}
	}
}

func TestFinalizeConcurrentItemsInOneSnapshot(t *testing.T) {
	ids := []string{"item-1", "item-2", "item-3", "item-4"}
	primary := newFakePrimary(ids...)
	entries := make([]store.SnapshotItem, len(ids))
	for i, id := range ids {
		entries[i] = store.SnapshotItem{ItemID: id, Status: store.StatusPending}
	}
	snapshots := newFakeSnapshots(&store.Snapshot{ID: 1, Items: entries})
	snapshots.readDelay = time.Millisecond
	syncer := New(primary, snapshots, nil, fastPolicies()...)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := syncer.Finalize(context.Background(), completedItem(id), successResult(id)); err != nil {
				t.Errorf("Finalize(%s): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		if got := primary.records[id].Status; got != store.StatusCompleted {
			t.Fatalf("primary %s = %q, want completed", id, got)
		}
	}
	// No finalization may revert another's snapshot entry.
	for _, item := range snapshots.snapshots[0].Items {
		if item.Status != store.StatusCompleted {
			t.Fatalf("snapshot entry %s = %q while primary says completed", item.ItemID, item.Status)
		}
	}
}

func TestFinalizeSnapshotRetriesIndependently(t *testing.T) {
	primary := newFakePrimary("item-1")
	snapshots := newFakeSnapshots(
		&store.Snapshot{ID: 1, Items: []store.SnapshotItem{
			{ItemID: "item-1", Status: store.StatusPending},
		}},
		&store.Snapshot{ID: 2, Items: []store.SnapshotItem{
			{ItemID: "item-1", Status: store.StatusPending},
		}},
	)
	snapshots.updateFailures[1] = 2
	syncer := New(primary, snapshots, nil, fastPolicies()...)

	if err := syncer.Finalize(context.Background(), completedItem("item-1"), successResult("item-1")); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if snapshots.updateCalls[1] != 3 {
		t.Fatalf("snapshot 1 attempts = %d, want 3", snapshots.updateCalls[1])
	}
	if snapshots.updateCalls[2] != 1 {
		t.Fatalf("snapshot 2 attempts = %d, want 1", snapshots.updateCalls[2])
	}
}

func TestFinalizeFailedItem(t *testing.T) {
	primary := newFakePrimary("item-1")
	syncer := New(primary, newFakeSnapshots(), nil, fastPolicies()...)

	item := &uploader.Item{ID: "item-1", ProductName: "Vase", Status: store.StatusFailed}
	result := &uploader.Result{ItemID: "item-1", Err: errors.New("create product: remote returned 500")}

	if err := syncer.Finalize(context.Background(), item, result); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	record := primary.records["item-1"]
	if record.Status != store.StatusFailed || record.UploadSuccess {
		t.Fatalf("failed outcome not persisted: %#v", record)
	}
	if record.ErrorMessage == "" {
		t.Fatal("error message not persisted")
	}
}

func TestSynchronizerAgainstRealStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecord(t, st, "item-1", "Vase")
	snapshot, err := st.SaveSnapshot(ctx, "batch", []store.SnapshotItem{
		{ItemID: "item-1", Name: "Vase", Status: store.StatusPending},
	})
	if err != nil {
		t.Fatal(err)
	}

	syncer := New(st, st, nil, fastPolicies()...)
	item := completedItem("item-1")
	if err := syncer.MarkProcessing(ctx, item); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := syncer.Finalize(ctx, item, successResult("item-1")); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	record, err := st.GetRecord(ctx, "item-1")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != store.StatusCompleted || record.RemoteProductID != 42 {
		t.Fatalf("record not persisted: %#v", record)
	}

	fetched, err := st.GetSnapshot(ctx, snapshot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Items[0].Status != store.StatusCompleted || fetched.Items[0].RemoteProductID != 42 {
		t.Fatalf("snapshot not patched: %#v", fetched.Items[0])
	}
}
