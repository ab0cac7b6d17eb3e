package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wasycim/cargo-notify/internal/model"
	"github.com/wasycim/cargo-notify/internal/queue"
)

// memQueue is a minimal in-memory Queue for dispatcher tests. It mirrors the
// contract: forward-only marks, same-state re-mark is a no-op.
type memQueue struct {
	mu   sync.Mutex
	msgs map[int64]*model.Message
	next int64

	listErr error
}

var _ queue.Queue = (*memQueue)(nil)

func newMemQueue() *memQueue {
	return &memQueue{msgs: make(map[int64]*model.Message)}
}

func (q *memQueue) Enqueue(ctx context.Context, phoneNumber, body string, typ model.MessageType, branchCode *string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.msgs[q.next] = &model.Message{
		ID:          q.next,
		PhoneNumber: phoneNumber,
		Body:        body,
		Type:        typ,
		Status:      model.Pending,
		BranchCode:  branchCode,
	}
	return q.next, nil
}

func (q *memQueue) EnqueueBatch(ctx context.Context, phoneNumbers []string, body string, typ model.MessageType, branchCode *string) ([]int64, error) {
	var ids []int64
	for _, p := range phoneNumbers {
		id, _ := q.Enqueue(ctx, p, body, typ, branchCode)
		ids = append(ids, id)
	}
	return ids, nil
}

func (q *memQueue) ListPending(ctx context.Context, branchCode string, limit int) ([]model.Message, error) {
	if q.listErr != nil {
		return nil, q.listErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.Message
	for _, m := range q.msgs {
		if m.Status != model.Pending {
			continue
		}
		if branchCode != "" && (m.BranchCode == nil || *m.BranchCode != branchCode) {
			continue
		}
		out = append(out, *m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (q *memQueue) mark(id int64, to model.Status) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, ok := q.msgs[id]
	if !ok {
		return queue.ErrNotFound
	}
	if m.Status == to {
		return nil
	}
	if m.Status != model.Pending {
		return queue.ErrInvalidTransition
	}
	m.Status = to
	return nil
}

func (q *memQueue) MarkSent(ctx context.Context, id int64) error {
	return q.mark(id, model.Sent)
}

func (q *memQueue) MarkFailed(ctx context.Context, id int64, reason string) error {
	q.mu.Lock()
	if m, ok := q.msgs[id]; ok {
		r := reason
		m.LastError = &r
	}
	q.mu.Unlock()
	return q.mark(id, model.Failed)
}

func (q *memQueue) ListByStatus(ctx context.Context, status model.Status, limit, offset int) ([]model.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.Message
	for _, m := range q.msgs {
		if m.Status == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (q *memQueue) statusOf(id int64) model.Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.msgs[id].Status
}

type scriptedClient struct {
	mu     sync.Mutex
	sent   []string
	failOn map[string]error
}

func (c *scriptedClient) Send(ctx context.Context, phoneNumber, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failOn[phoneNumber]; ok {
		return "", err
	}
	c.sent = append(c.sent, phoneNumber)
	return "remote-1", nil
}

func TestDispatcher_Tick_MarksOutcomes(t *testing.T) {
	t.Parallel()

	q := newMemQueue()
	ctx := context.Background()

	okID, _ := q.Enqueue(ctx, "5551111111", "mesaj", model.TypeNotification, nil)
	badID, _ := q.Enqueue(ctx, "5552222222", "mesaj", model.TypeNotification, nil)

	client := &scriptedClient{failOn: map[string]error{
		"5552222222": errors.New("number not on whatsapp"),
	}}

	d := NewDispatcher(q, client, "", 10)

	sent, failed := d.Tick(ctx)
	if sent != 1 || failed != 1 {
		t.Fatalf("expected sent=1 failed=1, got sent=%d failed=%d", sent, failed)
	}

	if got := q.statusOf(okID); got != model.Sent {
		t.Fatalf("expected message %d sent, got %q", okID, got)
	}
	if got := q.statusOf(badID); got != model.Failed {
		t.Fatalf("expected message %d failed, got %q", badID, got)
	}

	// Failed rows are terminal; a second pass delivers nothing new.
	sent, failed = d.Tick(ctx)
	if sent != 0 || failed != 0 {
		t.Fatalf("expected quiet second pass, got sent=%d failed=%d", sent, failed)
	}
}

func TestDispatcher_Tick_FiltersByBranch(t *testing.T) {
	t.Parallel()

	q := newMemQueue()
	ctx := context.Background()

	gbz := "GBZ"
	ank := "ANK"
	gbzID, _ := q.Enqueue(ctx, "5551111111", "mesaj", model.TypeNotification, &gbz)
	ankID, _ := q.Enqueue(ctx, "5552222222", "mesaj", model.TypeNotification, &ank)

	client := &scriptedClient{}
	d := NewDispatcher(q, client, "GBZ", 10)

	sent, failed := d.Tick(ctx)
	if sent != 1 || failed != 0 {
		t.Fatalf("expected sent=1 failed=0, got sent=%d failed=%d", sent, failed)
	}

	if got := q.statusOf(gbzID); got != model.Sent {
		t.Fatalf("expected own-branch message sent, got %q", got)
	}
	if got := q.statusOf(ankID); got != model.Pending {
		t.Fatalf("expected other-branch message untouched, got %q", got)
	}
}

func TestDispatcher_Tick_ListErrorIsQuiet(t *testing.T) {
	t.Parallel()

	q := newMemQueue()
	q.listErr = errors.New("db down")

	d := NewDispatcher(q, &scriptedClient{}, "", 10)

	sent, failed := d.Tick(context.Background())
	if sent != 0 || failed != 0 {
		t.Fatalf("expected no work on list error, got sent=%d failed=%d", sent, failed)
	}
}

func TestDispatcher_Tick_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	q := newMemQueue()
	ctx, cancel := context.WithCancel(context.Background())

	id, _ := q.Enqueue(ctx, "5551111111", "mesaj", model.TypeNotification, nil)
	cancel()

	d := NewDispatcher(q, &scriptedClient{}, "", 10)

	sent, failed := d.Tick(ctx)
	if sent != 0 || failed != 0 {
		t.Fatalf("expected no deliveries after cancel, got sent=%d failed=%d", sent, failed)
	}
	if got := q.statusOf(id); got != model.Pending {
		t.Fatalf("expected message left pending, got %q", got)
	}
}
