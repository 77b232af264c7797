package ports

import (
	"context"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// TxBroadcaster signs one composed intent and submits it as a single transaction.
// It never retries: a returned error means the intent may or may not have landed
// only when it is domain.ErrTimeout; every other error means it did not.
type TxBroadcaster interface {
	Broadcast(ctx context.Context, sender string, intent domain.TxIntent) (domain.TxResult, error)
}
