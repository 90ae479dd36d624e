package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteFunc performs database writes inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// ErrBatchClosed is returned by Submit and Close after Close.
var ErrBatchClosed = errors.New("batch writer closed")

// Batch buffers write operations and commits them together in one
// transaction once the buffer reaches its size. It is not safe for
// concurrent use.
type Batch struct {
	db        *sql.DB
	buf       []WriteFunc
	size      int
	closed    bool
	committed int
}

// NewBatch returns a Batch committing every size submissions. A size of
// zero or less falls back to 100.
func NewBatch(db *sql.DB, size int) *Batch {
	if size <= 0 {
		size = 100
	}
	return &Batch{db: db, buf: make([]WriteFunc, 0, size), size: size}
}

// Submit enqueues w and flushes when the buffer is full.
func (b *Batch) Submit(ctx context.Context, w WriteFunc) error {
	if b.closed {
		return ErrBatchClosed
	}
	b.buf = append(b.buf, w)
	if len(b.buf) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush commits the buffered writes. A failing write rolls back the
// whole batch.
func (b *Batch) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	batch := b.buf
	b.buf = make([]WriteFunc, 0, b.size)

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch (%d items): %w", len(batch), err)
	}
	b.committed += len(batch)
	return nil
}

// Committed returns the number of writes committed so far.
func (b *Batch) Committed() int { return b.committed }

// Close flushes any remaining writes and rejects further submissions.
func (b *Batch) Close(ctx context.Context) error {
	if b.closed {
		return ErrBatchClosed
	}
	b.closed = true
	return b.Flush(ctx)
}
