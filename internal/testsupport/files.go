package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// WriteImage writes a PNG of the given dimensions to path.
func WriteImage(t testing.TB, path string, width, height int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 8 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{B: 180, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteProductFolder creates a product folder holding the given number of
// small images and an optional description file, returning its path.
func WriteProductFolder(t testing.TB, root, name string, imageCount int, description string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for i := 0; i < imageCount; i++ {
		WriteImage(t, filepath.Join(dir, fmt.Sprintf("IMG_%04d.png", i+1)), 64, 48)
	}
	if description != "" {
		if err := os.WriteFile(filepath.Join(dir, "description.txt"), []byte(description), 0o644); err != nil {
			t.Fatalf("write description: %v", err)
		}
	}
	return dir
}
