package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/wasycim/cargo-notify/internal/model"
)

// Validation runs before any storage call, so a nil-DB queue is enough to
// exercise the rejection paths.

func TestEnqueue_ValidationRejectsBeforeStorage(t *testing.T) {
	t.Parallel()

	q := NewPostgresQueue(nil)
	ctx := context.Background()

	t.Run("empty phone", func(t *testing.T) {
		t.Parallel()

		_, err := q.Enqueue(ctx, "", "mesaj", model.TypeNotification, nil)
		if !errors.Is(err, ErrEmptyPhone) {
			t.Fatalf("expected ErrEmptyPhone, got %v", err)
		}
	})

	t.Run("whitespace-only phone", func(t *testing.T) {
		t.Parallel()

		_, err := q.Enqueue(ctx, "   ", "mesaj", model.TypeNotification, nil)
		if !errors.Is(err, ErrEmptyPhone) {
			t.Fatalf("expected ErrEmptyPhone, got %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		_, err := q.Enqueue(ctx, "5551234567", "", model.TypeNotification, nil)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
	})
}

func TestEnqueueBatch_ValidationRejectsBeforeStorage(t *testing.T) {
	t.Parallel()

	q := NewPostgresQueue(nil)
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		ids, err := q.EnqueueBatch(ctx, nil, "mesaj", model.TypeNotification, nil)
		if !errors.Is(err, ErrEmptyBatch) {
			t.Fatalf("expected ErrEmptyBatch, got %v", err)
		}
		if ids != nil {
			t.Fatalf("expected no ids, got %v", ids)
		}
	})

	t.Run("one bad recipient rejects the whole batch", func(t *testing.T) {
		t.Parallel()

		ids, err := q.EnqueueBatch(ctx, []string{"5551234567", " "}, "mesaj", model.TypeNotification, nil)
		if !errors.Is(err, ErrEmptyPhone) {
			t.Fatalf("expected ErrEmptyPhone, got %v", err)
		}
		if ids != nil {
			t.Fatalf("expected no ids, got %v", ids)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		_, err := q.EnqueueBatch(ctx, []string{"5551234567"}, "", model.TypeNotification, nil)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
	})
}

func TestValidateRecipient_NormalizesPhone(t *testing.T) {
	t.Parallel()

	p, err := validateRecipient("0555 123 45 67", "mesaj")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != "05551234567" {
		t.Fatalf("expected normalized phone, got %q", p)
	}
}
