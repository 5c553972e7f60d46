package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stockist/internal/logging"
	"stockist/internal/store"
	"stockist/internal/uploader"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

const (
	descriptionFile = "description.txt"
	categoryFile    = "category.txt"
)

var titleCaser = cases.Title(language.English)

// Folder is one discovered product folder.
type Folder struct {
	Name        string
	Path        string
	Description string
	CategoryID  int64
	Images      []string
}

// Discover walks the immediate subdirectories of root and returns one
// Folder per directory containing at least one image. The product name is
// derived from the folder name; description.txt and category.txt provide
// optional hints.
func Discover(root string, logger *slog.Logger) ([]Folder, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "scan")

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read scan root: %w", err)
	}

	var folders []Folder
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		folder, err := readFolder(dir, entry.Name())
		if err != nil {
			logger.Warn("skipping unreadable folder",
				logging.String("folder", dir),
				logging.Error(err),
			)
			continue
		}
		if len(folder.Images) == 0 {
			logger.Debug("skipping folder without images", logging.String("folder", dir))
			continue
		}
		folders = append(folders, folder)
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// ReadFolder builds a Folder from a single product directory.
func ReadFolder(dir string) (Folder, error) {
	return readFolder(dir, filepath.Base(dir))
}

func readFolder(dir, name string) (Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Folder{}, err
	}

	folder := Folder{
		Name: ProductName(name),
		Path: dir,
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(entry.Name()) {
		case descriptionFile:
			if data, err := os.ReadFile(filepath.Join(dir, entry.Name())); err == nil {
				folder.Description = strings.TrimSpace(string(data))
			}
			continue
		case categoryFile:
			if data, err := os.ReadFile(filepath.Join(dir, entry.Name())); err == nil {
				if id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64); err == nil {
					folder.CategoryID = id
				}
			}
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; ok {
			folder.Images = append(folder.Images, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(folder.Images)
	return folder, nil
}

// ProductName turns a folder name into a presentable product name:
// separators become spaces and each word is title-cased.
func ProductName(folderName string) string {
	name := strings.NewReplacer("_", " ", "-", " ").Replace(folderName)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return folderName
	}
	return titleCaser.String(strings.ToLower(name))
}

// Register inserts a pending record per folder, saves a batch snapshot
// embedding them all, and returns the upload items. The snapshot name is
// the base name of the scan root.
func Register(ctx context.Context, st *store.Store, root string, folders []Folder) ([]*uploader.Item, *store.Snapshot, error) {
	if len(folders) == 0 {
		return nil, nil, fmt.Errorf("no product folders found under %s", root)
	}

	items := make([]*uploader.Item, 0, len(folders))
	snapshotItems := make([]store.SnapshotItem, 0, len(folders))
	for _, folder := range folders {
		id := uuid.NewString()
		record := &store.Record{
			ID:          id,
			Name:        folder.Name,
			SourcePath:  folder.Path,
			Description: folder.Description,
			CategoryID:  folder.CategoryID,
		}
		if err := st.CreateRecord(ctx, record); err != nil {
			return nil, nil, fmt.Errorf("register %s: %w", folder.Name, err)
		}
		items = append(items, &uploader.Item{
			ID:          id,
			SourcePath:  folder.Path,
			ProductName: folder.Name,
			Description: folder.Description,
			CategoryID:  folder.CategoryID,
			ImagePaths:  folder.Images,
			Status:      store.StatusPending,
		})
		snapshotItems = append(snapshotItems, store.SnapshotItem{
			ItemID: id,
			Name:   folder.Name,
			Status: store.StatusPending,
		})
	}

	snapshot, err := st.SaveSnapshot(ctx, filepath.Base(root), snapshotItems)
	if err != nil {
		return nil, nil, fmt.Errorf("save batch snapshot: %w", err)
	}
	return items, snapshot, nil
}
