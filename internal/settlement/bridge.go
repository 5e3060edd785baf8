package settlement

import (
	"context"
	"errors"
	"math/big"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusUnknown   = "unknown"
)

var (
	// ErrTransferFailed covers both a reported failure and an exhausted poll
	// budget: an unconfirmed transfer is treated as failed and routed to
	// reconciliation, because it may still land later.
	ErrTransferFailed = errors.New("transfer_failed")
)

type Result struct {
	ExternalTxID string
}

// Bridge is the only component permitted to initiate an external transfer.
// Settle is safe to call at most once per idempotency key; the transport may
// retry internally under the same key.
type Bridge interface {
	Settle(ctx context.Context, destination string, amountWei *big.Int, idempotencyKey string) (*Result, error)
	Status(ctx context.Context, idempotencyKey string) (string, error)
}
