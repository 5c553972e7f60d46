package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"stockist/internal/catalog"
	"stockist/internal/logging"
	"stockist/internal/media"
)

// CatalogClient is the remote catalog surface the pipeline needs.
// *catalog.Client satisfies it.
type CatalogClient interface {
	UploadMedia(ctx context.Context, path, title, altText, description string) (catalog.MediaRef, error)
	CreateProduct(ctx context.Context, draft catalog.ProductDraft) (catalog.Product, error)
	AttachMedia(ctx context.Context, mediaID, productID int64) error
	UpdateMediaMetadata(ctx context.Context, mediaID int64, title, altText, description string) error
}

// Pipeline runs the per-item upload sequence: rename, resize, media upload,
// product create, media attach, media metadata. Steps within one item never
// run in parallel.
type Pipeline struct {
	catalog CatalogClient
	cfg     RunConfig
	logger  *slog.Logger
}

// NewPipeline builds a pipeline bound to a catalog client.
func NewPipeline(client CatalogClient, cfg RunConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		catalog: client,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Process publishes one item. The item is completed iff product creation
// returns a remote id; per-image failures and post-create attach/metadata
// failures are logged and skipped. Uploaded media are not rolled back when
// creation fails, so they may remain orphaned on the remote catalog.
func (p *Pipeline) Process(ctx context.Context, item *Item) *Result {
	result := &Result{ItemID: item.ID}

	// Rename persists on disk regardless of the upload outcome.
	renamed, err := media.RenameToTitle(item.ImagePaths, item.ProductName)
	item.ImagePaths = renamed
	if err != nil {
		p.logger.Warn("image rename incomplete",
			logging.String(logging.FieldItemName, item.ProductName),
			logging.Error(err),
		)
	}

	description := strings.TrimSpace(item.Description)
	if description == "" {
		description = FallbackDescription(item.ProductName)
	}

	refs := p.uploadImages(ctx, item, description)

	draft := p.buildDraft(item, description, refs)
	product, err := p.catalog.CreateProduct(ctx, draft)
	if err != nil {
		result.Err = fmt.Errorf("create product %s: %w", item.ProductName, err)
		return result
	}
	if product.ID == 0 {
		result.Err = catalog.Wrap(catalog.ErrTransient, "create product", "remote returned product without an id", nil)
		return result
	}

	result.ProductID = product.ID
	result.ProductURL = product.Permalink
	result.SKU = draft.SKU
	result.Media = refs
	result.UploadedAt = time.Now().UTC()

	p.finishMedia(ctx, item, product.ID, refs)
	return result
}

// uploadImages handles steps 2 and 3: resize oversized images to temp files
// and upload up to the configured cap. Temp files are removed right after
// each image's upload attempt.
func (p *Pipeline) uploadImages(ctx context.Context, item *Item, description string) []catalog.MediaRef {
	limit := p.cfg.MaxImagesPerItem
	if limit <= 0 || limit > len(item.ImagePaths) {
		limit = len(item.ImagePaths)
	}

	refs := make([]catalog.MediaRef, 0, limit)
	for _, path := range item.ImagePaths[:limit] {
		uploadPath, isTemp, err := media.EnsureMaxSize(path, p.cfg.MaxPixelDim)
		if err != nil {
			p.logger.Warn("resize failed, uploading original",
				logging.String("image", path),
				logging.Error(err),
			)
			uploadPath, isTemp = path, false
		}

		ref, err := p.catalog.UploadMedia(ctx, uploadPath, item.ProductName, item.ProductName, description)
		if isTemp {
			if removeErr := os.Remove(uploadPath); removeErr != nil {
				p.logger.Warn("remove resized temp file",
					logging.String("image", uploadPath),
					logging.Error(removeErr),
				)
			}
		}
		if err != nil {
			p.logger.Warn("image upload failed, skipping",
				logging.String(logging.FieldItemName, item.ProductName),
				logging.String("image", path),
				logging.Error(err),
			)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

func (p *Pipeline) buildDraft(item *Item, description string, refs []catalog.MediaRef) catalog.ProductDraft {
	defaults := p.cfg.Defaults
	draft := catalog.ProductDraft{
		Name:         item.ProductName,
		SKU:          GenerateSKU(item.ProductName, item.ID, time.Now()),
		Type:         "simple",
		Status:       defaults.Status,
		Description:  description,
		RegularPrice: defaults.RegularPrice,
		SalePrice:    defaults.SalePrice,
		Images:       refs,
	}

	if defaults.ManageStock {
		quantity := defaults.StockQuantity
		draft.ManageStock = true
		draft.StockQuantity = &quantity
		draft.StockStatus = defaults.StockStatus
		if draft.StockStatus == "" {
			if quantity > 0 {
				draft.StockStatus = "instock"
			} else {
				draft.StockStatus = "outofstock"
			}
		}
	}

	// Item category wins over the configured default.
	categoryID := item.CategoryID
	if categoryID == 0 {
		categoryID = defaults.DefaultCategoryID
	}
	if categoryID != 0 {
		draft.Categories = []catalog.CategoryRef{{ID: categoryID}}
	}
	return draft
}

// finishMedia performs the best-effort post-create steps: attach each media
// object to the product and update its caption/alt/description. Failures
// never fail a completed item.
func (p *Pipeline) finishMedia(ctx context.Context, item *Item, productID int64, refs []catalog.MediaRef) {
	for _, ref := range refs {
		if err := p.catalog.AttachMedia(ctx, ref.ID, productID); err != nil {
			p.logger.Warn("attach media failed",
				logging.String(logging.FieldItemName, item.ProductName),
				logging.Int64("media_id", ref.ID),
				logging.Error(err),
			)
		}
		if err := p.catalog.UpdateMediaMetadata(ctx, ref.ID, ref.Title, ref.AltText, ref.Description); err != nil {
			p.logger.Warn("update media metadata failed",
				logging.String(logging.FieldItemName, item.ProductName),
				logging.Int64("media_id", ref.ID),
				logging.Error(err),
			)
		}
	}
}
