package cache

import (
	"context"
	"time"

	"github.com/wasycim/cargo-notify/internal/model"
)

type ReceiptCache interface {
	StoreReceipt(ctx context.Context, messageID int64, status model.Status, at time.Time) error
}
