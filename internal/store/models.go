package store

import "time"

// Status represents the lifecycle of a product record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether s is a known record status.
func ValidStatus(s Status) bool {
	_, ok := statusSet[s]
	return ok
}

// Record is one product row in the primary store.
type Record struct {
	ID              string
	Name            string
	SourcePath      string
	Description     string
	CategoryID      int64
	Status          Status
	SKU             string
	RemoteProductID int64
	ProductURL      string
	UploadSuccess   bool
	ErrorMessage    string
	UploadedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecordUpdate carries the full terminal outcome written after a pipeline
// run. Zero-valued fields clear the corresponding columns.
type RecordUpdate struct {
	Status          Status
	SKU             string
	RemoteProductID int64
	ProductURL      string
	UploadSuccess   bool
	ErrorMessage    string
	UploadedAt      *time.Time
}

// SnapshotItem is the per-item state embedded in a batch snapshot blob.
type SnapshotItem struct {
	ItemID          string `json:"item_id"`
	Name            string `json:"name"`
	Status          Status `json:"status"`
	RemoteProductID int64  `json:"remote_product_id,omitempty"`
	ProductURL      string `json:"product_url,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	UploadedAt      string `json:"uploaded_at,omitempty"`
}

// Snapshot is a saved batch: a named JSON list of item states.
type Snapshot struct {
	ID        int64
	Name      string
	Items     []SnapshotItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatusSummary aggregates record counts per lifecycle state.
type StatusSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
