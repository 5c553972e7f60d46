package uploader

import (
	"log/slog"

	"stockist/internal/logging"
)

// EventSink receives run progress. Progress and ItemFinished are delivered
// in counter order under an engine lock; implementations must return
// promptly and must not call back into the engine.
type EventSink interface {
	Progress(processed, total int, message string)
	ItemFinished(index int, result *Result, message string)
	Completed(successCount, totalCount int)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Progress(int, int, string)         {}
func (NopSink) ItemFinished(int, *Result, string) {}
func (NopSink) Completed(int, int)                {}

// LogSink forwards events to a logger, used by the CLI.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds a sink logging under the "upload" component.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logging.NewComponentLogger(logger, "upload")}
}

func (s *LogSink) Progress(processed, total int, message string) {
	s.logger.Info(message,
		logging.Int("processed", processed),
		logging.Int("total", total),
	)
}

func (s *LogSink) ItemFinished(index int, result *Result, message string) {
	if result.Succeeded() {
		s.logger.Info(message,
			logging.Int("item_index", index),
			logging.String(logging.FieldItemID, result.ItemID),
			logging.Int64("product_id", result.ProductID),
			logging.String("product_url", result.ProductURL),
		)
		return
	}
	s.logger.Warn(message,
		logging.Int("item_index", index),
		logging.String(logging.FieldItemID, result.ItemID),
		logging.Error(result.Err),
	)
}

func (s *LogSink) Completed(successCount, totalCount int) {
	s.logger.Info("upload run finished",
		logging.Int("succeeded", successCount),
		logging.Int("total", totalCount),
	)
}
