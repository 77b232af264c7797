// Package countdown drives the auction clock for a single stock.
package countdown

import (
	"context"
	"time"

	"github.com/alejandrodnm/influstock/internal/domain"
)

const DefaultTick = time.Second

// Monitor recalcula la cuenta atrás en cada tick y la entrega a un callback.
type Monitor struct {
	end    time.Time
	window time.Duration
	tick   time.Duration
	now    func() time.Time
}

// Option ajusta un Monitor.
type Option func(*Monitor)

// WithTick cambia el intervalo de recálculo.
func WithTick(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.tick = d
		}
	}
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithWindow cambia la duración total de la subasta usada para el porcentaje.
func WithWindow(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.window = d
		}
	}
}

func NewMonitor(end time.Time, opts ...Option) *Monitor {
	m := &Monitor{
		end:    end,
		window: domain.DefaultAuctionWindow,
		tick:   DefaultTick,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current devuelve el estado para el instante actual.
func (m *Monitor) Current() domain.CountdownState {
	return domain.Countdown(m.end, m.now(), m.window)
}

// Run emite un estado inmediatamente y luego uno por tick. Termina al emitir
// el primer estado Expired (devuelve nil) o cuando ctx termina (ctx.Err()).
func (m *Monitor) Run(ctx context.Context, emit func(domain.CountdownState)) error {
	st := m.Current()
	emit(st)
	if st.Expired {
		return nil
	}

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st := m.Current()
			emit(st)
			if st.Expired {
				return nil
			}
		}
	}
}
