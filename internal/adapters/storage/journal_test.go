package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/influstock/internal/adapters/storage"
	"github.com/alejandrodnm/influstock/internal/domain"
)

func makeSubmission(id, account string, at time.Time) domain.Submission {
	return domain.Submission{
		ID:        id,
		SessionID: "sess-1",
		Account:   account,
		Intent: domain.TxIntent{
			Kind:          domain.IntentPlaceBid,
			StockID:       2,
			Shares:        3,
			PricePerShare: 1_234_567,
			Funds:         3_703_701,
		},
		CreatedAt: at,
	}
}

func newJournal(t *testing.T) *storage.SQLiteJournal {
	t.Helper()
	j, err := storage.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournal_RecordAndList(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, j.RecordSubmission(ctx, makeSubmission("a", "acct1", base)))
	require.NoError(t, j.RecordSubmission(ctx, makeSubmission("b", "acct1", base.Add(time.Second))))
	require.NoError(t, j.RecordSubmission(ctx, makeSubmission("c", "acct2", base)))

	subs, err := j.ListSubmissions(ctx, "acct1", 10)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	// Más nuevas primero
	assert.Equal(t, "b", subs[0].ID)
	assert.Equal(t, "a", subs[1].ID)

	s := subs[1]
	assert.Equal(t, domain.SubmissionPending, s.Status)
	assert.Equal(t, domain.IntentPlaceBid, s.Intent.Kind)
	assert.Equal(t, uint64(2), s.Intent.StockID)
	assert.Equal(t, uint64(3), s.Intent.Shares)
	assert.Equal(t, domain.Micro(1_234_567), s.Intent.PricePerShare)
	assert.Equal(t, domain.Micro(3_703_701), s.Intent.Funds)
	assert.True(t, base.Equal(s.CreatedAt))
}

func TestSQLiteJournal_ListRespectsLimit(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i, id := range []string{"1", "2", "3"} {
		require.NoError(t, j.RecordSubmission(ctx, makeSubmission(id, "acct", base.Add(time.Duration(i)*time.Second))))
	}

	subs, err := j.ListSubmissions(ctx, "acct", 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "3", subs[0].ID)
}

func TestSQLiteJournal_ResolveOnce(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	require.NoError(t, j.RecordSubmission(ctx, makeSubmission("x", "acct", time.Now())))

	err := j.ResolveSubmission(ctx, "x", domain.SubmissionRejected, "HASH", "Bid price is lower than minimum bid price")
	require.NoError(t, err)

	subs, err := j.ListSubmissions(ctx, "acct", 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, domain.SubmissionRejected, subs[0].Status)
	assert.Equal(t, "HASH", subs[0].TxHash)
	assert.Equal(t, "Bid price is lower than minimum bid price", subs[0].Message)

	// Ya resuelta: no se reescribe
	err = j.ResolveSubmission(ctx, "x", domain.SubmissionConfirmed, "OTHER", "")
	assert.ErrorIs(t, err, storage.ErrSubmissionNotFound)

	err = j.ResolveSubmission(ctx, "missing", domain.SubmissionConfirmed, "", "")
	assert.ErrorIs(t, err, storage.ErrSubmissionNotFound)
}

func TestSQLiteJournal_ResolveKeepsHashWhenEmpty(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	s := makeSubmission("y", "acct", time.Now())
	s.TxHash = "EARLY"
	require.NoError(t, j.RecordSubmission(ctx, s))

	require.NoError(t, j.ResolveSubmission(ctx, "y", domain.SubmissionTimeout, "", "timed out"))

	subs, err := j.ListSubmissions(ctx, "acct", 1)
	require.NoError(t, err)
	assert.Equal(t, "EARLY", subs[0].TxHash)
	assert.Equal(t, domain.SubmissionTimeout, subs[0].Status)
}

func TestSQLiteJournal_DuplicateIDFails(t *testing.T) {
	j := newJournal(t)
	ctx := context.Background()
	require.NoError(t, j.RecordSubmission(ctx, makeSubmission("dup", "acct", time.Now())))
	assert.Error(t, j.RecordSubmission(ctx, makeSubmission("dup", "acct", time.Now())))
}
