package media

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const jpegQuality = 90

// EnsureMaxSize downscales an image so neither dimension exceeds maxDim,
// writing the scaled copy to a "<name>_resized<ext>" temp file next to the
// original. It returns the path to upload and whether a temp file was
// created; callers are expected to remove the temp file once the upload
// attempt finishes. Images already within bounds are returned unchanged.
// Only JPEG and PNG are rescaled; other formats pass through untouched.
func EnsureMaxSize(path string, maxDim int) (string, bool, error) {
	if maxDim <= 0 {
		return path, false, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return path, false, nil
	}

	in, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("open image: %w", err)
	}
	src, format, err := image.Decode(in)
	in.Close()
	if err != nil {
		return "", false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return path, false, nil
	}

	scaledW, scaledH := fitWithin(width, height, maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	tempPath := resizedPath(path)
	out, err := os.Create(tempPath)
	if err != nil {
		return "", false, fmt.Errorf("create resized copy: %w", err)
	}
	switch format {
	case "png":
		err = png.Encode(out, dst)
	default:
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return "", false, fmt.Errorf("encode resized copy: %w", err)
	}
	return tempPath, true, nil
}

// fitWithin scales (width, height) down so the longer side equals maxDim
// while preserving aspect ratio.
func fitWithin(width, height, maxDim int) (int, int) {
	if width >= height {
		scaled := height * maxDim / width
		if scaled < 1 {
			scaled = 1
		}
		return maxDim, scaled
	}
	scaled := width * maxDim / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxDim
}

func resizedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_resized" + ext
}
