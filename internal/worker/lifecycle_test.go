package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savelyeva/docextract/internal/schema"
	"github.com/savelyeva/docextract/internal/store"
	"github.com/savelyeva/docextract/internal/task"
)

func setupLifecycle(t *testing.T) (*Lifecycle, *store.Store) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	s, err := store.New(mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	return NewLifecycle(s, nil), s
}

func TestLifecycle_Claim(t *testing.T) {
	l, s := setupLifecycle(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, task.New("t1", "a.txt", "text/plain", []byte("content"))))

	claimed, err := l.Claim(ctx, "t1")
	require.NoError(t, err)

	// In-flight copy keeps the document bytes for this pass.
	assert.Equal(t, task.StatusProcessing, claimed.Status)
	assert.Equal(t, []byte("content"), claimed.RawContent)

	// Stored copy does not.
	stored, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusProcessing, stored.Status)
	assert.Empty(t, stored.RawContent)
}

func TestLifecycle_ClaimNonPending(t *testing.T) {
	l, s := setupLifecycle(t)
	ctx := context.Background()

	rec := task.New("t1", "a.txt", "text/plain", nil)
	rec.Status = task.StatusCompleted
	require.NoError(t, s.Put(ctx, rec))

	_, err := l.Claim(ctx, "t1")
	require.Error(t, err)

	var te *task.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, task.KindInternal, te.Kind)
}

func TestLifecycle_ClaimMissing(t *testing.T) {
	l, _ := setupLifecycle(t)

	_, err := l.Claim(context.Background(), "ghost")
	require.Error(t, err)

	var te *task.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, task.KindInternal, te.Kind)
}

func TestLifecycle_Complete(t *testing.T) {
	l, s := setupLifecycle(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, task.New("t1", "a.txt", "text/plain", []byte("content"))))
	_, err := l.Claim(ctx, "t1")
	require.NoError(t, err)

	number := "42"
	require.NoError(t, l.Complete(ctx, "t1", &schema.InvoiceData{InvoiceNumber: &number}))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "42", *got.Result.InvoiceNumber)
	assert.Nil(t, got.Error)
	assert.Empty(t, got.RawContent)
}

func TestLifecycle_Fail(t *testing.T) {
	l, s := setupLifecycle(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, task.New("t1", "a.txt", "text/plain", []byte("content"))))
	_, err := l.Claim(ctx, "t1")
	require.NoError(t, err)

	desc := &task.ErrorDescriptor{Kind: task.KindEmptyOrUnreadable, Message: "no text"}
	require.NoError(t, l.Fail(ctx, "t1", desc))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, task.KindEmptyOrUnreadable, got.Error.Kind)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.RawContent)
}

func TestLifecycle_FailPartialRecord(t *testing.T) {
	l, s := setupLifecycle(t)
	ctx := context.Background()

	// Record with almost nothing on it: Fail must still land.
	require.NoError(t, s.Put(ctx, &task.Record{ID: "bare", Status: task.StatusProcessing}))

	desc := &task.ErrorDescriptor{Kind: task.KindInternal, Message: "boom"}
	require.NoError(t, l.Fail(ctx, "bare", desc))

	got, err := s.Get(ctx, "bare")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, got.Status)
	assert.Equal(t, task.KindInternal, got.Error.Kind)
}

func TestLifecycle_FailMissingRecordIsNoOp(t *testing.T) {
	l, s := setupLifecycle(t)
	ctx := context.Background()

	desc := &task.ErrorDescriptor{Kind: task.KindInternal, Message: "boom"}
	assert.NoError(t, l.Fail(ctx, "ghost", desc))

	ids, err := s.PendingIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
