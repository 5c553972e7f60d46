// Package media prepares local product images for upload: sanitizing product
// names into safe filenames, renaming image files to match the product, and
// downscaling oversized images to a temporary copy. Originals are never
// modified by resizing; renames are deliberate on-disk side effects.
package media
