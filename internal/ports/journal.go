package ports

import (
	"context"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// Journal keeps an append-only audit trail of broadcasts.
// It is never used to rebuild ledger views.
type Journal interface {
	RecordSubmission(ctx context.Context, s domain.Submission) error
	ResolveSubmission(ctx context.Context, id string, status domain.SubmissionStatus, txHash, message string) error
	ListSubmissions(ctx context.Context, account string, limit int) ([]domain.Submission, error)
	Close() error
}
