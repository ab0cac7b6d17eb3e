// Package dispatch is the optional in-process delivery worker. Deployments
// with per-branch WhatsApp bots leave it off; the bots poll the queue
// themselves over the worker endpoints. Without bots, the dispatcher runs
// the same loop here: list pending, attempt delivery, mark the outcome.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/wasycim/cargo-notify/internal/cache"
	"github.com/wasycim/cargo-notify/internal/model"
	"github.com/wasycim/cargo-notify/internal/queue"
)

// SendClient is the delivery transport. Send returns the remote message id
// assigned by the gateway.
type SendClient interface {
	Send(ctx context.Context, phoneNumber, message string) (string, error)
}

type Dispatcher struct {
	queue    queue.Queue
	client   SendClient
	receipts cache.ReceiptCache

	branchCode string
	batchSize  int
}

func NewDispatcher(q queue.Queue, client SendClient, branchCode string, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Dispatcher{
		queue:      q,
		client:     client,
		branchCode: branchCode,
		batchSize:  batchSize,
	}
}

// WithReceiptCache records terminal outcomes in the cache as well. A nil
// cache leaves receipts off.
func (d *Dispatcher) WithReceiptCache(c cache.ReceiptCache) *Dispatcher {
	d.receipts = c
	return d
}

// Tick runs one delivery pass. A message that fails transport is marked
// failed with the reason and not retried; at-least-once semantics mean a
// crash between transport success and MarkSent can deliver a duplicate on
// the next pass, which recipients must tolerate.
func (d *Dispatcher) Tick(ctx context.Context) (sent, failed int) {
	msgs, err := d.queue.ListPending(ctx, d.branchCode, d.batchSize)
	if err != nil {
		slog.Error("dispatch: listing pending messages failed", "error", err)
		return 0, 0
	}

	for _, m := range msgs {
		if ctx.Err() != nil {
			return sent, failed
		}

		remoteID, err := d.client.Send(ctx, m.PhoneNumber, m.Body)
		if err != nil {
			failed++
			if markErr := d.queue.MarkFailed(ctx, m.ID, err.Error()); markErr != nil {
				slog.Error("dispatch: mark failed", "id", m.ID, "error", markErr)
			}
			d.storeReceipt(ctx, m.ID, model.Failed)
			continue
		}

		sent++
		if markErr := d.queue.MarkSent(ctx, m.ID); markErr != nil {
			slog.Error("dispatch: mark sent", "id", m.ID, "error", markErr)
		}
		slog.Info("dispatch: delivered", "id", m.ID, "remote_id", remoteID, "type", m.Type)
		d.storeReceipt(ctx, m.ID, model.Sent)
	}
	return sent, failed
}

func (d *Dispatcher) storeReceipt(ctx context.Context, id int64, status model.Status) {
	if d.receipts == nil {
		return
	}
	if err := d.receipts.StoreReceipt(ctx, id, status, time.Now()); err != nil {
		slog.Warn("dispatch: receipt cache write failed", "id", id, "error", err)
	}
}
