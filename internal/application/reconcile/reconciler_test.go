package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/influstock/internal/adapters/ledger/ledgertest"
	"github.com/alejandrodnm/influstock/internal/application/quote"
	"github.com/alejandrodnm/influstock/internal/application/reconcile"
	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/application/views"
	"github.com/alejandrodnm/influstock/internal/domain"
)

const (
	alice = "chihuahua1alice"
	bob   = "chihuahua1bob"
)

// recordingNotifier guarda cada snapshot notificado.
type recordingNotifier struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (n *recordingNotifier) NotifySnapshot(_ context.Context, s domain.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snaps = append(n.snaps, s)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snaps)
}

func newFake() *ledgertest.Fake {
	end := time.Now().Add(time.Hour)
	return &ledgertest.Fake{
		Stocks: []domain.Stock{
			{ID: 1, Ticker: "DOGE", Influencer: alice, AuctionEnd: &end, ActiveAuction: true},
		},
		Bids: []domain.Bid{
			{ID: 1, StockID: 1, Bidder: alice, SharesRequested: 10, RemainingShares: 10, PricePerShare: 5, Open: true, Active: true},
			{ID: 2, StockID: 1, Bidder: bob, SharesRequested: 4, RemainingShares: 4, PricePerShare: 7, Open: true, Active: true},
		},
		MinBid: map[uint64]domain.Micro{1: 5},
	}
}

func newReconciler(f *ledgertest.Fake, n *recordingNotifier) *reconcile.Reconciler {
	facade := views.NewFacade(f, quote.NewEngine(f, quote.Options{}))
	if n == nil {
		return reconcile.NewReconciler(facade, nil)
	}
	return reconcile.NewReconciler(facade, n)
}

func TestSnapshot_BeforeFirstPassIsNotConnected(t *testing.T) {
	r := newReconciler(newFake(), nil)
	snap := r.Snapshot()
	assert.False(t, snap.Connected)
	assert.Equal(t, domain.ViewNotConnected, snap.MyBids.Status)
	assert.Equal(t, domain.ViewNotConnected, snap.InAuction.Status)
}

func TestReconcile_DisconnectedLoadsOnlyPublicViews(t *testing.T) {
	f := newFake()
	r := newReconciler(f, nil)

	snap := r.Reconcile(context.Background())
	assert.False(t, snap.Connected)
	assert.Equal(t, domain.ViewLoaded, snap.InAuction.Status)
	assert.Len(t, snap.InAuction.Items, 1)
	assert.Equal(t, domain.ViewLoaded, snap.InSale.Status)
	assert.Empty(t, snap.InSale.Items)

	for _, st := range []domain.ViewStatus{snap.MyStocks.Status, snap.MyBids.Status, snap.MyShares.Status, snap.MyOrders.Status} {
		assert.Equal(t, domain.ViewNotConnected, st)
	}
	assert.Zero(t, f.Calls("GetBidsByBidder"))
	assert.Zero(t, f.Calls("GetSharesByOwner"))
}

func TestSessionChanged_LoadsAccountViews(t *testing.T) {
	f := newFake()
	n := &recordingNotifier{}
	r := newReconciler(f, n)

	snap := r.SessionChanged(context.Background(), session.Connect(alice))
	assert.True(t, snap.Connected)
	assert.Equal(t, alice, snap.Account)
	require.Equal(t, domain.ViewLoaded, snap.MyBids.Status)
	require.Len(t, snap.MyBids.Items, 1)
	assert.Equal(t, uint64(1), snap.MyBids.Items[0].ID)

	require.Equal(t, domain.ViewLoaded, snap.MyStocks.Status)
	assert.Len(t, snap.MyStocks.Items, 1)

	// Vacío pero cargado: distinto de NotConnected.
	assert.Equal(t, domain.ViewLoaded, snap.MyShares.Status)
	assert.NotNil(t, snap.MyShares.Items)
	assert.Empty(t, snap.MyShares.Items)

	assert.Equal(t, 1, n.count())
	assert.Equal(t, snap.SessionID, r.Snapshot().SessionID)
}

func TestReconcile_ReplacesWholesale(t *testing.T) {
	f := newFake()
	r := newReconciler(f, nil)
	first := r.SessionChanged(context.Background(), session.Connect(alice))
	require.Len(t, first.MyBids.Items, 1)

	f.Update(func(f *ledgertest.Fake) {
		f.Bids = []domain.Bid{
			{ID: 3, StockID: 1, Bidder: alice, SharesRequested: 1, RemainingShares: 1, PricePerShare: 9, Open: true, Active: true},
			{ID: 4, StockID: 1, Bidder: alice, SharesRequested: 1, RemainingShares: 1, PricePerShare: 9, Open: true, Active: true},
		}
	})

	second := r.Reconcile(context.Background())
	require.Len(t, second.MyBids.Items, 2)
	for _, b := range second.MyBids.Items {
		assert.NotEqual(t, uint64(1), b.ID, "old bid must not survive")
	}
	assert.Greater(t, second.Generation, first.Generation)
}

func TestReconcile_AccountSwitchDropsPreviousAccountData(t *testing.T) {
	f := newFake()
	r := newReconciler(f, nil)
	r.SessionChanged(context.Background(), session.Connect(alice))

	snap := r.SessionChanged(context.Background(), session.Connect(bob))
	require.Len(t, snap.MyBids.Items, 1)
	assert.Equal(t, bob, snap.MyBids.Items[0].Bidder)
	assert.Empty(t, snap.MyStocks.Items)

	snap = r.SessionChanged(context.Background(), session.Disconnected())
	assert.Equal(t, domain.ViewNotConnected, snap.MyBids.Status)
}

func TestReconcile_WatchIncludesOpenBids(t *testing.T) {
	f := newFake()
	r := newReconciler(f, nil)
	r.Watch(1)

	snap := r.Reconcile(context.Background())
	view, ok := snap.OpenBids[1]
	require.True(t, ok)
	require.Equal(t, domain.ViewLoaded, view.Status)
	require.Len(t, view.Items, 2)
	assert.Equal(t, domain.Micro(5), view.Items[0].PricePerShare)

	r.Unwatch(1)
	snap = r.Reconcile(context.Background())
	assert.NotContains(t, snap.OpenBids, uint64(1))
}

func TestReconcile_FailedViewIsIsolated(t *testing.T) {
	f := newFake()
	f.Errs = map[string]error{"GetBidsByBidder": errors.New("lcd down")}
	r := newReconciler(f, nil)

	snap := r.SessionChanged(context.Background(), session.Connect(alice))
	assert.Equal(t, domain.ViewFailed, snap.MyBids.Status)
	assert.Error(t, snap.MyBids.Err)
	assert.Equal(t, domain.ViewLoaded, snap.MyShares.Status)
	assert.Equal(t, domain.ViewLoaded, snap.InAuction.Status)
}

func TestReconcile_StalePassNeverOverwritesNewSession(t *testing.T) {
	f := newFake()
	block := make(chan struct{})
	f.Block = block
	n := &recordingNotifier{}
	r := newReconciler(f, n)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.SessionChanged(context.Background(), session.Connect(alice))
	}()
	require.Eventually(t, func() bool { return r.Session().Account == alice && f.TotalCalls() > 0 }, time.Second, time.Millisecond)

	go func() {
		defer wg.Done()
		r.SessionChanged(context.Background(), session.Connect(bob))
	}()
	require.Eventually(t, func() bool { return r.Session().Account == bob }, time.Second, time.Millisecond)

	close(block)
	wg.Wait()

	snap := r.Snapshot()
	assert.Equal(t, bob, snap.Account)
	require.Equal(t, domain.ViewLoaded, snap.MyBids.Status)
	assert.Equal(t, bob, snap.MyBids.Items[0].Bidder)
	assert.Equal(t, 1, n.count(), "only the current session is published")
}
