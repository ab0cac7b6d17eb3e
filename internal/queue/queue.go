package queue

import (
	"context"
	"errors"

	"github.com/wasycim/cargo-notify/internal/model"
)

var (
	// Validation failures the caller can fix.
	ErrEmptyPhone   = errors.New("phone number must not be empty")
	ErrEmptyMessage = errors.New("message body must not be empty")
	ErrEmptyBatch   = errors.New("recipient list must not be empty")

	ErrNotFound = errors.New("message not found")
	// ErrInvalidTransition is returned when a worker tries to flip a row
	// from one terminal state to the other. Re-marking the same terminal
	// state is a no-op, not an error.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Queue is the durable hand-off between producers and the delivery worker.
// Producers only ever insert; the worker is the sole writer of status.
// No ordering is guaranteed across recipients.
type Queue interface {
	Enqueue(ctx context.Context, phoneNumber, body string, typ model.MessageType, branchCode *string) (int64, error)
	EnqueueBatch(ctx context.Context, phoneNumbers []string, body string, typ model.MessageType, branchCode *string) ([]int64, error)

	// Worker-side contract. Marks are idempotent because a restarted worker
	// may reprocess a row it is unsure about; delivery is at-least-once.
	ListPending(ctx context.Context, branchCode string, limit int) ([]model.Message, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error

	ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.Message, error)
}
