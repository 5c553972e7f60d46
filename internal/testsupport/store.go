package testsupport

import (
	"context"
	"testing"

	"stockist/internal/config"
	"stockist/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRecord inserts a pending product record for tests.
func NewRecord(t testing.TB, st *store.Store, id, name string) *store.Record {
	t.Helper()

	record := &store.Record{ID: id, Name: name}
	if err := st.CreateRecord(context.Background(), record); err != nil {
		t.Fatalf("store.CreateRecord: %v", err)
	}
	return record
}
