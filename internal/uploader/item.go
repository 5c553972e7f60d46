package uploader

import (
	"crypto/md5"
	"fmt"
	"strconv"
	"time"

	"stockist/internal/catalog"
	"stockist/internal/config"
	"stockist/internal/store"
)

// Item is one product to publish. Items are owned by the caller's batch
// list; the engine mutates Status, RetryCount, and ImagePaths in place and
// never removes entries.
type Item struct {
	ID          string
	SourcePath  string
	ProductName string
	Description string
	CategoryID  int64
	ImagePaths  []string
	Status      store.Status
	RetryCount  int
}

// Result is the outcome of one pipeline execution for an item.
type Result struct {
	ItemID     string
	ProductID  int64
	ProductURL string
	SKU        string
	Media      []catalog.MediaRef
	Err        error
	UploadedAt time.Time
}

// Succeeded reports whether the pipeline produced a remote product.
func (r *Result) Succeeded() bool {
	return r != nil && r.Err == nil && r.ProductID != 0
}

// ErrorMessage returns a short human-readable failure description, empty on
// success.
func (r *Result) ErrorMessage() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ProductDefaults are the config-supplied fields stamped onto every created
// product.
type ProductDefaults struct {
	Status            string
	RegularPrice      string
	SalePrice         string
	ManageStock       bool
	StockQuantity     int
	StockStatus       string
	DefaultCategoryID int64
}

// RunConfig is the immutable per-run configuration. It is built once before
// the run starts and never mutated afterwards.
type RunConfig struct {
	Concurrent       bool
	MaxWorkers       int
	ItemDelay        time.Duration
	WorkerStartDelay time.Duration
	DrainTimeout     time.Duration
	MaxImagesPerItem int
	MaxPixelDim      int
	RetryBackoff     time.Duration
	Defaults         ProductDefaults
}

// RunConfigFrom maps the loaded configuration onto a RunConfig.
func RunConfigFrom(cfg *config.Config) RunConfig {
	return RunConfig{
		Concurrent:       cfg.Upload.Concurrent,
		MaxWorkers:       cfg.Upload.MaxWorkers,
		ItemDelay:        time.Duration(cfg.Upload.ItemDelaySeconds) * time.Second,
		WorkerStartDelay: time.Duration(cfg.Upload.WorkerStartDelay) * time.Millisecond,
		DrainTimeout:     time.Duration(cfg.Upload.DrainTimeout) * time.Millisecond,
		MaxImagesPerItem: cfg.Upload.MaxImagesPerItem,
		MaxPixelDim:      cfg.Upload.MaxPixelDim,
		RetryBackoff:     time.Second,
		Defaults: ProductDefaults{
			Status:            cfg.Products.Status,
			RegularPrice:      cfg.Products.RegularPrice,
			SalePrice:         cfg.Products.SalePrice,
			ManageStock:       cfg.Products.ManageStock,
			StockQuantity:     cfg.Products.StockQuantity,
			StockStatus:       cfg.Products.StockStatus,
			DefaultCategoryID: cfg.Products.DefaultCategoryID,
		},
	}
}

// Summary is the final outcome of a run.
type Summary struct {
	SuccessCount int
	TotalCount   int
	Processed    int
	Stopped      bool
}

// GenerateSKU derives a deterministic numeric-only SKU from the product
// name, item id, and a timestamp: the first 8 hex digits of the MD5 digest
// read as a number.
func GenerateSKU(name, itemID string, now time.Time) string {
	digest := md5.Sum([]byte(fmt.Sprintf("%s%s%d", name, itemID, now.Unix())))
	value, _ := strconv.ParseUint(fmt.Sprintf("%x", digest[:4]), 16, 64)
	return strconv.FormatUint(value, 10)
}

// FallbackDescription synthesizes a description for items whose folder
// carried none.
func FallbackDescription(name string) string {
	return fmt.Sprintf("Premium quality %s. Perfect for any occasion.", name)
}
