package worker

import (
	"context"
	"log/slog"

	"github.com/savelyeva/docextract/internal/schema"
	"github.com/savelyeva/docextract/internal/store"
	"github.com/savelyeva/docextract/internal/task"
)

// Lifecycle owns every record mutation after submission. Status moves along
// PENDING → PROCESSING → {COMPLETED, FAILED} and nowhere else; both terminal
// states are absorbing. Claim is not safe under concurrent claim of the same
// id from two workers; single-worker operation is the operating assumption.
type Lifecycle struct {
	store *store.Store
	log   *slog.Logger
}

func NewLifecycle(s *store.Store, log *slog.Logger) *Lifecycle {
	if log == nil {
		log = slog.Default()
	}
	return &Lifecycle{store: s, log: log}
}

// Claim transitions a PENDING record to PROCESSING and returns the in-flight
// copy. The stored PROCESSING copy drops the raw content so the document
// bytes live only in this worker pass; the returned record keeps them.
func (l *Lifecycle) Claim(ctx context.Context, id string) (*task.Record, error) {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, task.WrapErr(task.KindTransport, err)
	}
	if rec == nil {
		return nil, task.Errf(task.KindInternal, "task %s not found at claim", id)
	}
	if rec.Status != task.StatusPending {
		return nil, task.Errf(task.KindInternal, "task %s is %s, expected %s", id, rec.Status, task.StatusPending)
	}

	stored := *rec
	stored.Status = task.StatusProcessing
	stored.RawContent = nil
	if err := l.store.Put(ctx, &stored); err != nil {
		return nil, task.WrapErr(task.KindTransport, err)
	}

	rec.Status = task.StatusProcessing
	return rec, nil
}

// Complete writes the terminal COMPLETED record: result set, error and raw
// content cleared.
func (l *Lifecycle) Complete(ctx context.Context, id string, result *schema.InvoiceData) error {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return task.WrapErr(task.KindTransport, err)
	}
	if rec == nil {
		return task.Errf(task.KindInternal, "task %s vanished before completion", id)
	}

	rec.Status = task.StatusCompleted
	rec.Result = result
	rec.Error = nil
	rec.RawContent = nil

	if err := l.store.Put(ctx, rec); err != nil {
		return task.WrapErr(task.KindTransport, err)
	}
	return nil
}

// Fail writes the terminal FAILED record: error set, result and raw content
// cleared. It tolerates partially constructed records. When the record
// cannot be located at all this is a no-op logged as critical, since there is
// nowhere else to report the failure.
func (l *Lifecycle) Fail(ctx context.Context, id string, desc *task.ErrorDescriptor) error {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return task.WrapErr(task.KindTransport, err)
	}
	if rec == nil {
		l.log.Error("CRITICAL: cannot mark task failed, record not found", "task_id", id, "kind", desc.Kind)
		return nil
	}

	rec.Status = task.StatusFailed
	rec.Error = desc
	rec.Result = nil
	rec.RawContent = nil

	if err := l.store.Put(ctx, rec); err != nil {
		return task.WrapErr(task.KindTransport, err)
	}
	return nil
}
