package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/savelyeva/docextract/internal/extractor"
	"github.com/savelyeva/docextract/internal/schema"
	"github.com/savelyeva/docextract/internal/store"
	"github.com/savelyeva/docextract/internal/task"
)

const (
	DefaultPollInterval = 1 * time.Second
	DefaultBackoff      = 5 * time.Second
)

// InvoiceExtractor is the model half of the pipeline, abstracted so tests
// can substitute a stub.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, documentText string) (*schema.InvoiceData, error)
}

// Worker is a single-threaded cooperative scheduler with one task in flight
// at a time. Each cycle scans the store for pending ids, claims the first
// one found and runs extraction end to end. It never terminates on its own;
// the only exit is context cancellation.
type Worker struct {
	store        *store.Store
	lifecycle    *Lifecycle
	invoices     InvoiceExtractor
	pollInterval time.Duration
	backoff      time.Duration
	log          *slog.Logger
}

func New(s *store.Store, invoices InvoiceExtractor, pollInterval time.Duration, log *slog.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		store:        s,
		lifecycle:    NewLifecycle(s, log),
		invoices:     invoices,
		pollInterval: pollInterval,
		backoff:      DefaultBackoff,
		log:          log,
	}
}

// Run drives the loop until ctx is cancelled. Store connectivity loss pauses
// the loop for the backoff interval and checks liveness before resuming;
// nothing else escapes a task's processing boundary.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("worker started, waiting for tasks")

	for {
		if ctx.Err() != nil {
			w.log.Info("worker shutting down")
			return
		}

		ids, err := w.store.PendingIDs(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("store scan failed", "error", err)
			w.pause(ctx)
			continue
		}

		if len(ids) == 0 {
			w.sleep(ctx, w.pollInterval)
			continue
		}

		// Scan order is store-defined: first discovered wins. That is a
		// simplicity trade-off, not a fairness guarantee.
		if err := w.processTask(ctx, ids[0]); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error("store unreachable mid-task", "task_id", ids[0], "error", err)
			w.pause(ctx)
		}
	}
}

// processTask claims the task and guarantees exactly one terminal transition
// follows: every error on the processing path funnels into Fail. The only
// errors returned to the loop are store connectivity failures.
func (w *Worker) processTask(ctx context.Context, id string) error {
	rec, err := w.lifecycle.Claim(ctx, id)
	if err != nil {
		var te *task.Error
		if errors.As(err, &te) && te.Kind == task.KindTransport {
			return err
		}
		// Record vanished or changed status under us: abandon and move on.
		w.log.Error("CRITICAL: task not claimable", "task_id", id, "error", err)
		return nil
	}

	w.log.Info("processing task", "task_id", rec.ID, "filename", rec.SourceFilename, "media_type", rec.MediaType)

	result, perr := w.runExtraction(ctx, rec)
	if perr != nil {
		w.log.Error("task failed", "task_id", rec.ID, "error", perr)
		return w.lifecycle.Fail(ctx, rec.ID, task.Describe(perr))
	}

	if err := w.lifecycle.Complete(ctx, rec.ID, result); err != nil {
		return err
	}

	w.log.Info("task completed", "task_id", rec.ID)
	return nil
}

// runExtraction is the text-recovery plus model-invocation sequence. A panic
// anywhere inside maps to an internal error so the caller still reaches the
// fail transition.
func (w *Worker) runExtraction(ctx context.Context, rec *task.Record) (result *schema.InvoiceData, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = task.Errf(task.KindInternal, "panic during extraction: %v", r)
		}
	}()

	text, err := extractor.Text(rec.RawContent, rec.MediaType)
	if err != nil {
		return nil, err
	}

	w.log.Info("text extracted", "task_id", rec.ID, "length", len(text))

	return w.invoices.ExtractInvoice(ctx, text)
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// pause backs off after a connectivity failure and probes the store before
// scanning again.
func (w *Worker) pause(ctx context.Context) {
	w.sleep(ctx, w.backoff)
	if ctx.Err() != nil {
		return
	}
	if err := w.store.Ping(ctx); err != nil {
		w.log.Error("store still unreachable", "error", err)
		return
	}
	w.log.Info("store connection restored")
}
