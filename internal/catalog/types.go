package catalog

// MediaRef identifies a media object on the remote catalog together with the
// descriptive fields that were sent when it was uploaded.
type MediaRef struct {
	ID          int64  `json:"id"`
	SourceURL   string `json:"src"`
	Title       string `json:"name,omitempty"`
	AltText     string `json:"alt,omitempty"`
	Description string `json:"-"`
}

// CategoryRef references a remote product category by id.
type CategoryRef struct {
	ID int64 `json:"id"`
}

// ProductDraft is the request payload for product creation.
type ProductDraft struct {
	Name          string        `json:"name"`
	SKU           string        `json:"sku"`
	Type          string        `json:"type"`
	Status        string        `json:"status"`
	Description   string        `json:"description,omitempty"`
	RegularPrice  string        `json:"regular_price"`
	SalePrice     string        `json:"sale_price,omitempty"`
	ManageStock   bool          `json:"manage_stock"`
	StockQuantity *int          `json:"stock_quantity,omitempty"`
	StockStatus   string        `json:"stock_status,omitempty"`
	Categories    []CategoryRef `json:"categories,omitempty"`
	Images        []MediaRef    `json:"images,omitempty"`
}

// Product is the remote catalog's view of a created product.
type Product struct {
	ID        int64  `json:"id"`
	Permalink string `json:"permalink"`
}

// Category is a remote product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
