package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stockist/internal/scan"
	"stockist/internal/store"
	"stockist/internal/testsupport"
)

func TestDiscoverFindsProductFolders(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteProductFolder(t, root, "ceramic_vase", 2, "A hand-thrown vase.")
	testsupport.WriteProductFolder(t, root, "oak-shelf", 1, "")
	if err := os.MkdirAll(filepath.Join(root, "empty_folder"), 0o755); err != nil {
		t.Fatal(err)
	}

	folders, err := scan.Discover(root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("found %d folders, want 2 (empty folder skipped)", len(folders))
	}
	if folders[0].Name != "Ceramic Vase" || folders[1].Name != "Oak Shelf" {
		t.Fatalf("unexpected names: %q, %q", folders[0].Name, folders[1].Name)
	}
	if folders[0].Description != "A hand-thrown vase." {
		t.Fatalf("description hint not read: %q", folders[0].Description)
	}
	if len(folders[0].Images) != 2 {
		t.Fatalf("image count = %d, want 2", len(folders[0].Images))
	}
}

func TestDiscoverReadsCategoryHint(t *testing.T) {
	root := t.TempDir()
	dir := testsupport.WriteProductFolder(t, root, "linen_napkin", 1, "")
	if err := os.WriteFile(filepath.Join(dir, "category.txt"), []byte("31\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	folders, err := scan.Discover(root, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(folders) != 1 || folders[0].CategoryID != 31 {
		t.Fatalf("category hint not read: %#v", folders)
	}
}

func TestProductName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ceramic_vase", "Ceramic Vase"},
		{"oak-shelf", "Oak Shelf"},
		{"GLASS jar", "Glass Jar"},
		{"  spaced  out  ", "Spaced Out"},
	}
	for _, tc := range cases {
		if got := scan.ProductName(tc.in); got != tc.want {
			t.Errorf("ProductName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegisterCreatesRecordsAndSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	root := t.TempDir()
	testsupport.WriteProductFolder(t, root, "ceramic_vase", 1, "A vase.")
	testsupport.WriteProductFolder(t, root, "oak_shelf", 1, "")

	ctx := context.Background()
	folders, err := scan.Discover(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	items, snapshot, err := scan.Register(ctx, st, root, folders)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("item count = %d, want 2", len(items))
	}
	if len(snapshot.Items) != 2 {
		t.Fatalf("snapshot items = %d, want 2", len(snapshot.Items))
	}

	for _, item := range items {
		record, err := st.GetRecord(ctx, item.ID)
		if err != nil {
			t.Fatalf("record missing for %s: %v", item.ProductName, err)
		}
		if record.Status != store.StatusPending {
			t.Fatalf("record status = %q, want pending", record.Status)
		}
	}
}

func TestRegisterRejectsEmptyScan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, _, err := scan.Register(context.Background(), st, t.TempDir(), nil); err == nil {
		t.Fatal("expected error for empty folder list")
	}
}
