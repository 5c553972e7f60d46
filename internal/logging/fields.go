package logging

// Shared attribute keys used across components so log lines stay greppable.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldItemID    = "item_id"
	FieldItemName  = "item_name"
	FieldRunID    = "run_id"
	FieldWorkerID = "worker_id"
	FieldAttempt  = "attempt"
)
