package ledger

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// parseMillis interpreta un timestamp del ledger. Acepta número (ms), string
// numérico (ms) o RFC 3339. Ausente, null, no positivo o ilegible → nil.
func parseMillis(raw json.RawMessage) *time.Time {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			if t.UnixMilli() <= 0 {
				return nil
			}
			t = t.UTC()
			return &t
		}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || f <= 0 || f >= math.MaxInt64 {
			return nil
		}
		ms = int64(f)
	}
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func timeOrZero(raw json.RawMessage) time.Time {
	if t := parseMillis(raw); t != nil {
		return *t
	}
	return time.Time{}
}

func toStock(r stockRaw) domain.Stock {
	return domain.Stock{
		ID:            uint64(r.ID),
		Ticker:        r.Ticker,
		Influencer:    r.Influencer,
		TotalShares:   uint64(r.TotalShares),
		AuctionStart:  parseMillis(r.AuctionStart),
		AuctionEnd:    parseMillis(r.AuctionEnd),
		ActiveAuction: r.MarkedAsActiveAuction,
		CreatedAt:     timeOrZero(r.CreatedAt),
	}
}

func toBid(r bidRaw) domain.Bid {
	b := domain.Bid{
		ID:              uint64(r.ID),
		StockID:         uint64(r.StockID),
		Bidder:          r.Bidder,
		SharesRequested: uint64(r.SharesRequested),
		RemainingShares: uint64(r.RemainingShares),
		PricePerShare:   domain.Micro(r.PricePerShare),
		CreatedAt:       timeOrZero(r.CreatedAt),
		Open:            r.Open != 0,
		Active:          r.Active,
	}
	if b.RemainingShares > b.SharesRequested {
		slog.Warn("ledger bid has more remaining than requested shares, clamping",
			"bid_id", b.ID, "remaining", b.RemainingShares, "requested", b.SharesRequested)
		b.RemainingShares = b.SharesRequested
	}
	return b
}

func toHolding(r shareRaw) domain.Holding {
	return domain.Holding{
		ID:      uint64(r.ID),
		StockID: uint64(r.StockID),
		Owner:   r.Owner,
		Shares:  uint64(r.NoOfShares),
	}
}

func toMarketPrice(r priceResponse) domain.MarketPrice {
	return domain.MarketPrice{
		Shares:   uint64(r.RequestedShares),
		Total:    domain.Micro(r.TotalPrice),
		PerShare: domain.Micro(r.PricePerShare),
	}
}

// Las órdenes de compra pendientes son requested − bought.
func buyToOrder(r buyOrderRaw) domain.Order {
	resolved := parseMillis(r.ResolvedAt)
	shares, filled := uint64(r.RequestedShares), uint64(r.BoughtShares)
	return domain.Order{
		ID:            uint64(r.ID),
		StockID:       uint64(r.StockID),
		Side:          domain.SideBuy,
		Shares:        shares,
		FilledShares:  filled,
		PricePerShare: domain.Micro(r.PricePerShare),
		Status:        domain.OrderStatusOf(resolved != nil, shares, filled),
		CreatedAt:     timeOrZero(r.CreatedAt),
		ResolvedAt:    resolved,
	}
}

// Las órdenes de venta pendientes son available − sold.
func sellToOrder(r sellOrderRaw) domain.Order {
	resolved := parseMillis(r.ResolvedAt)
	shares, filled := uint64(r.AvailableShares), uint64(r.SoldShares)
	return domain.Order{
		ID:            uint64(r.ID),
		StockID:       uint64(r.StockID),
		Side:          domain.SideSell,
		Shares:        shares,
		FilledShares:  filled,
		PricePerShare: domain.Micro(r.PricePerShare),
		Status:        domain.OrderStatusOf(resolved != nil, shares, filled),
		CreatedAt:     timeOrZero(r.CreatedAt),
		ResolvedAt:    resolved,
	}
}

func toSale(r saleRaw) domain.Sale {
	return domain.Sale{
		ID:            uint64(r.ID),
		StockID:       uint64(r.StockID),
		Shares:        uint64(r.NoOfShares),
		PricePerShare: domain.Micro(r.PricePerShare),
		From:          r.From,
		To:            r.To,
		CreatedAt:     timeOrZero(r.CreatedAt),
	}
}

func mapAll[R, T any](in []R, fn func(R) T) []T {
	out := make([]T, 0, len(in))
	for _, r := range in {
		out = append(out, fn(r))
	}
	return out
}
