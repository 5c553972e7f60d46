package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RenameToTitle renames each image so its filename matches the sanitized
// product name: the first image becomes "<title><ext>", later ones
// "<title>_02<ext>", "<title>_03<ext>", and so on. When a target already
// exists an "_alt_N" suffix is appended until a free name is found. The
// rename is an on-disk side effect that persists even if the upload later
// fails.
//
// Files that cannot be renamed keep their original path; the returned slice
// always has one entry per input, in input order. The error reports the
// first rename failure, if any.
func RenameToTitle(paths []string, productName string) ([]string, error) {
	title := SanitizeTitle(productName)
	renamed := make([]string, 0, len(paths))
	var firstErr error
	for i, path := range paths {
		target := targetName(path, title, i, strings.ToLower(filepath.Ext(path)))
		if target == path {
			renamed = append(renamed, path)
			continue
		}
		if err := os.Rename(path, target); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("rename %s: %w", filepath.Base(path), err)
			}
			renamed = append(renamed, path)
			continue
		}
		renamed = append(renamed, target)
	}
	return renamed, firstErr
}

func targetName(source, title string, index int, ext string) string {
	dir := filepath.Dir(source)
	base := title
	if index > 0 {
		base = fmt.Sprintf("%s_%02d", title, index+1)
	}
	candidate := filepath.Join(dir, base+ext)
	for alt := 1; candidate != source && pathExists(candidate); alt++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_alt_%d%s", base, alt, ext))
	}
	return candidate
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
