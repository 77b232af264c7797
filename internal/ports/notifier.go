package ports

import (
	"context"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// Notifier presents a freshly rebuilt snapshot.
type Notifier interface {
	NotifySnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Navigator receives the route to show after a successful transaction.
type Navigator interface {
	Navigate(route string)
}
