// Package reconcile rebuilds the client's view of the ledger as a whole.
//
// Every pass re-reads every view and swaps the previous snapshot for the new
// one; nothing is patched in place. A pass started for an older session never
// replaces the snapshot of a newer one.
package reconcile

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/application/views"
	"github.com/alejandrodnm/influstock/internal/domain"
	"github.com/alejandrodnm/influstock/internal/ports"
)

// Reconciler mantiene el snapshot vigente de la sesión activa.
type Reconciler struct {
	facade   *views.Facade
	notifier ports.Notifier
	now      func() time.Time

	mu      sync.Mutex
	sess    session.Session
	watched map[uint64]struct{}
	gen     uint64

	current atomic.Pointer[domain.Snapshot]
}

// NewReconciler arranca con una sesión desconectada. notifier puede ser nil.
func NewReconciler(facade *views.Facade, notifier ports.Notifier) *Reconciler {
	return &Reconciler{
		facade:   facade,
		notifier: notifier,
		now:      time.Now,
		sess:     session.Disconnected(),
		watched:  make(map[uint64]struct{}),
	}
}

// Session returns the session the reconciler currently serves.
func (r *Reconciler) Session() session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess
}

// Snapshot devuelve el último snapshot publicado. Antes del primer pase,
// todas las vistas están en NotConnected.
func (r *Reconciler) Snapshot() domain.Snapshot {
	if s := r.current.Load(); s != nil {
		return *s
	}
	return emptySnapshot(r.Session(), r.now())
}

// Watch incluye los bids abiertos de stockID en cada snapshot.
func (r *Reconciler) Watch(stockID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watched[stockID] = struct{}{}
}

func (r *Reconciler) Unwatch(stockID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watched, stockID)
}

// SessionChanged adopta la nueva sesión y hace un pase completo.
func (r *Reconciler) SessionChanged(ctx context.Context, sess session.Session) domain.Snapshot {
	r.mu.Lock()
	prev := r.sess
	r.sess = sess
	r.mu.Unlock()

	slog.Info("session changed", "from", prev.Account, "to", sess.Account, "session_id", sess.ID)
	return r.Reconcile(ctx)
}

// Reconcile relee todas las vistas de la sesión actual y publica el resultado.
func (r *Reconciler) Reconcile(ctx context.Context) domain.Snapshot {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	sess := r.sess
	watched := make([]uint64, 0, len(r.watched))
	for id := range r.watched {
		watched = append(watched, id)
	}
	r.mu.Unlock()
	slices.Sort(watched)

	snap := r.build(ctx, sess, watched)
	snap.Generation = gen

	r.mu.Lock()
	stale := r.sess.ID != sess.ID
	if !stale {
		if cur := r.current.Load(); cur != nil && cur.Generation > gen {
			stale = true
		}
	}
	var prev *domain.Snapshot
	if !stale {
		prev = r.current.Swap(&snap)
	}
	r.mu.Unlock()

	if stale {
		slog.Debug("discarding stale reconciliation", "session_id", sess.ID, "generation", gen)
		return r.Snapshot()
	}

	if prev != nil && prev.SessionID == snap.SessionID {
		checkOrderTransitions(prev.MyOrders, snap.MyOrders)
	}
	slog.Info("reconciled",
		"account", sess.Account,
		"generation", gen,
		"in_auction", len(snap.InAuction.Items),
		"in_sale", len(snap.InSale.Items),
		"my_bids", snap.MyBids.Status,
	)

	if r.notifier != nil {
		if err := r.notifier.NotifySnapshot(ctx, snap); err != nil {
			slog.Warn("snapshot notification failed", "err", err)
		}
	}
	return snap
}

// build lee todas las vistas en paralelo. Cada vista guarda su propio error;
// un fallo no tumba el resto del snapshot.
func (r *Reconciler) build(ctx context.Context, sess session.Session, watched []uint64) domain.Snapshot {
	snap := emptySnapshot(sess, r.now())

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(8)

	g.Go(func() error {
		items, err := r.facade.StocksInAuction(ctx)
		snap.InAuction = domain.LoadedView(items, err)
		return nil
	})
	g.Go(func() error {
		items, err := r.facade.StocksInSale(ctx)
		snap.InSale = domain.LoadedView(items, err)
		return nil
	})
	for _, id := range watched {
		g.Go(func() error {
			items, err := r.facade.OpenBidsByStock(ctx, id)
			mu.Lock()
			snap.OpenBids[id] = domain.LoadedView(items, err)
			mu.Unlock()
			return nil
		})
	}

	if account, err := sess.RequireAccount(); err == nil {
		g.Go(func() error {
			items, err := r.facade.StocksByInfluencer(ctx, account)
			snap.MyStocks = domain.LoadedView(items, err)
			return nil
		})
		g.Go(func() error {
			items, err := r.facade.BidsByBidder(ctx, account)
			snap.MyBids = domain.LoadedView(items, err)
			return nil
		})
		g.Go(func() error {
			items, err := r.facade.SharesByOwner(ctx, account)
			snap.MyShares = domain.LoadedView(items, err)
			return nil
		})
		g.Go(func() error {
			items, err := r.facade.OrdersByOwner(ctx, account)
			snap.MyOrders = domain.LoadedView(items, err)
			return nil
		})
	}

	_ = g.Wait()
	return snap
}

func emptySnapshot(sess session.Session, now time.Time) domain.Snapshot {
	return domain.Snapshot{
		SessionID: sess.ID,
		Account:   sess.Account,
		Connected: sess.Connected(),
		BuiltAt:   now,
		MyStocks:  domain.NotConnectedView[domain.StockSummary](),
		InAuction: domain.NotConnectedView[domain.StockSummary](),
		InSale:    domain.NotConnectedView[domain.StockSummary](),
		MyBids:    domain.NotConnectedView[domain.Bid](),
		MyShares:  domain.NotConnectedView[domain.Holding](),
		MyOrders:  domain.NotConnectedView[domain.Order](),
		OpenBids:  make(map[uint64]domain.View[domain.Bid]),
	}
}

type orderKey struct {
	side domain.OrderSide
	id   uint64
}

// checkOrderTransitions avisa si el ledger devolvió una transición imposible
// (p.ej. una orden resuelta que vuelve a estar abierta).
func checkOrderTransitions(prev, next domain.View[domain.Order]) {
	if prev.Status != domain.ViewLoaded || next.Status != domain.ViewLoaded {
		return
	}
	before := make(map[orderKey]domain.OrderStatus, len(prev.Items))
	for _, o := range prev.Items {
		before[orderKey{o.Side, o.ID}] = o.Status
	}
	for _, o := range next.Items {
		from, ok := before[orderKey{o.Side, o.ID}]
		if ok && !domain.CanTransition(from, o.Status) {
			slog.Warn("ledger reported an invalid order transition",
				"order_id", o.ID, "side", o.Side, "from", from, "to", o.Status)
		}
	}
}
