package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"stockist/internal/catalog"
	"stockist/internal/logging"
	"stockist/internal/retry"
	"stockist/internal/store"
)

// defaultDrainTimeout bounds how long Cancel waits for in-flight items.
const defaultDrainTimeout = 3 * time.Second

// StateSynchronizer makes item outcomes durable after each pipeline run.
// Finalize must never fail the upload outcome; its error is logged only.
type StateSynchronizer interface {
	MarkProcessing(ctx context.Context, item *Item) error
	Finalize(ctx context.Context, item *Item, result *Result) error
}

// NopSynchronizer discards state updates, for callers without a store.
type NopSynchronizer struct{}

func (NopSynchronizer) MarkProcessing(context.Context, *Item) error    { return nil }
func (NopSynchronizer) Finalize(context.Context, *Item, *Result) error { return nil }

// Engine runs a batch of items through the pipeline with a bounded worker
// pool, or inline when concurrency is disabled.
type Engine struct {
	pipeline *Pipeline
	syncer   StateSynchronizer
	sink     EventSink
	logger   *slog.Logger
	cfg      RunConfig

	mu        sync.Mutex
	queue     *itemQueue
	successes int
	processed int
	total     int

	cancelled atomic.Bool
}

// NewEngine assembles an engine. A nil sink or synchronizer is replaced
// with a no-op.
func NewEngine(client CatalogClient, syncer StateSynchronizer, sink EventSink, cfg RunConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if sink == nil {
		sink = NopSink{}
	}
	if syncer == nil {
		syncer = NopSynchronizer{}
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Engine{
		pipeline: NewPipeline(client, cfg, logger),
		syncer:   syncer,
		sink:     sink,
		logger:   logging.NewComponentLogger(logger, "engine"),
		cfg:      cfg,
	}
}

// Run processes every item to a terminal state and returns the summary. It
// blocks until the batch finishes or cancellation drains the pool.
func (e *Engine) Run(ctx context.Context, items []*Item) (Summary, error) {
	if len(items) == 0 {
		return Summary{}, errors.New("no items to upload")
	}
	if e.pipeline.catalog == nil {
		return Summary{}, errors.New("catalog client is required")
	}

	queue := newItemQueue(items)
	e.mu.Lock()
	e.queue = queue
	e.successes = 0
	e.processed = 0
	e.total = len(items)
	e.mu.Unlock()
	e.cancelled.Store(false)

	runLogger := e.logger.With(logging.String(logging.FieldRunID, uuid.NewString()))
	workers := e.workerCount(len(items))
	runLogger.Info("upload run starting",
		logging.Int("items", len(items)),
		logging.Int("workers", workers),
	)
	if workers <= 1 {
		// Sequential fallback: same loop, same events, calling goroutine.
		e.workerLoop(ctx, queue, 0)
	} else {
		e.runPool(ctx, queue, workers)
	}

	e.mu.Lock()
	summary := Summary{
		SuccessCount: e.successes,
		TotalCount:   e.total,
		Processed:    e.processed,
		Stopped:      e.cancelled.Load() || ctx.Err() != nil,
	}
	e.queue = nil
	e.mu.Unlock()

	runLogger.Info("upload run finished",
		logging.Int("succeeded", summary.SuccessCount),
		logging.Int("processed", summary.Processed),
		logging.Int("total", summary.TotalCount),
		logging.Bool("stopped", summary.Stopped),
	)
	e.sink.Completed(summary.SuccessCount, summary.TotalCount)
	return summary, nil
}

// Cancel stops new items from starting, clears the queue, and waits up to
// the drain timeout for in-flight items. It reports whether all in-flight
// items reached a terminal state in time.
func (e *Engine) Cancel() bool {
	e.cancelled.Store(true)

	e.mu.Lock()
	queue := e.queue
	e.mu.Unlock()
	if queue == nil {
		return true
	}

	dropped := queue.Clear()
	if dropped > 0 {
		e.logger.Info("cancellation requested", logging.Int("dropped", dropped))
	}
	drained := queue.Join(e.cfg.DrainTimeout)
	if !drained {
		e.logger.Warn("in-flight items did not reach a terminal state before the drain timeout")
	}
	return drained
}

func (e *Engine) workerCount(itemCount int) int {
	if !e.cfg.Concurrent {
		return 1
	}
	workers := e.cfg.MaxWorkers
	if workers > itemCount {
		workers = itemCount
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func (e *Engine) runPool(ctx context.Context, queue *itemQueue, workers int) {
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		if w > 0 && e.cfg.WorkerStartDelay > 0 {
			if err := retry.Sleep(ctx, e.cfg.WorkerStartDelay); err != nil {
				break
			}
		}
		if e.stopRequested(ctx) {
			break
		}
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.workerLoop(ctx, queue, workerID)
		}(w)
	}
	wg.Wait()
}

func (e *Engine) workerLoop(ctx context.Context, queue *itemQueue, workerID int) {
	for {
		if e.stopRequested(ctx) {
			return
		}
		index, item, ok := queue.Pop()
		if !ok {
			return
		}
		e.handleItem(ctx, index, item, workerID)
		queue.MarkDone()
		if e.cfg.ItemDelay > 0 && !e.stopRequested(ctx) && queue.Remaining() > 0 {
			_ = retry.Sleep(ctx, e.cfg.ItemDelay)
		}
	}
}

// handleItem runs one item to a terminal state. Panics and errors are
// contained to the item; the worker loop always continues.
func (e *Engine) handleItem(ctx context.Context, index int, item *Item, workerID int) {
	item.Status = store.StatusProcessing
	if err := e.syncer.MarkProcessing(ctx, item); err != nil {
		e.logger.Warn("mark processing failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.Error(err),
		)
	}

	result := e.runPipeline(ctx, item, workerID)

	if result.Succeeded() {
		item.Status = store.StatusCompleted
	} else {
		item.Status = store.StatusFailed
	}

	message := fmt.Sprintf("uploaded %s", item.ProductName)
	if !result.Succeeded() {
		message = fmt.Sprintf("failed %s: %s", item.ProductName, result.ErrorMessage())
	}

	// Counter updates and event delivery share the lock so progress events
	// arrive in counter order.
	e.mu.Lock()
	if result.Succeeded() {
		e.successes++
	}
	e.processed++
	processed, total := e.processed, e.total
	e.sink.Progress(processed, total, fmt.Sprintf("%d/%d %s", processed, total, item.ProductName))
	e.sink.ItemFinished(index, result, message)
	e.mu.Unlock()

	if err := e.syncer.Finalize(ctx, item, result); err != nil {
		e.logger.Error("state synchronization failed",
			logging.String(logging.FieldItemID, item.ID),
			logging.Error(err),
		)
	}
}

// runPipeline invokes the pipeline with at most one bounded retry for
// transient-shaped failures. Validation and configuration failures fail
// fast.
func (e *Engine) runPipeline(ctx context.Context, item *Item, workerID int) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &Result{
				ItemID: item.ID,
				Err:    fmt.Errorf("pipeline panic: %v", r),
			}
			e.logger.Error("pipeline panicked",
				logging.String(logging.FieldItemID, item.ID),
				logging.Int(logging.FieldWorkerID, workerID),
				logging.Any("panic", r),
			)
		}
	}()

	result = e.pipeline.Process(ctx, item)
	if result.Err == nil || !catalog.IsTransient(result.Err) || e.stopRequested(ctx) {
		return result
	}

	item.RetryCount++
	e.logger.Info("retrying item after transient failure",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int(logging.FieldAttempt, item.RetryCount+1),
		logging.Error(result.Err),
	)
	if err := retry.Sleep(ctx, e.cfg.RetryBackoff); err != nil {
		return result
	}
	return e.pipeline.Process(ctx, item)
}

func (e *Engine) stopRequested(ctx context.Context) bool {
	return e.cancelled.Load() || ctx.Err() != nil
}
