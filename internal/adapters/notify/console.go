package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// Console implementa ports.Notifier y ports.Navigator sobre un terminal.
type Console struct {
	out   io.Writer
	unit  string
	now   func() time.Time
	width int
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(denom string) *Console {
	return NewConsoleWriter(os.Stdout, denom)
}

// NewConsoleWriter crea un notificador sobre w, útil en tests.
func NewConsoleWriter(w io.Writer, denom string) *Console {
	return &Console{out: w, unit: displayUnit(denom), now: time.Now, width: 42}
}

// NotifySnapshot imprime todas las vistas de una pasada de reconciliación.
func (c *Console) NotifySnapshot(_ context.Context, snap domain.Snapshot) error {
	who := "not connected"
	if snap.Connected {
		who = snap.Account
	}
	fmt.Fprintf(c.out, "\n[%s] %s (gen %d)\n", snap.BuiltAt.Format("15:04:05"), who, snap.Generation)

	c.stocks("IN AUCTION", snap.InAuction)
	c.stocks("IN SALE", snap.InSale)
	c.stocks("MY STOCKS", snap.MyStocks)
	c.bids("MY BIDS", snap.MyBids)
	c.shares(snap.MyShares)
	c.orders(snap.MyOrders)

	ids := make([]uint64, 0, len(snap.OpenBids))
	for id := range snap.OpenBids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c.bids(fmt.Sprintf("OPEN BIDS #%d", id), snap.OpenBids[id])
	}
	return nil
}

// Navigate imprime la ruta a la que iría la UI tras un envío confirmado.
func (c *Console) Navigate(route string) {
	fmt.Fprintf(c.out, "→ %s\n", route)
}

// PrintQuote imprime una cotización pendiente de confirmar.
func (c *Console) PrintQuote(q domain.Quote) {
	switch q.Kind {
	case domain.QuoteMinimumBid:
		total, _ := q.Amount.Times(q.Shares)
		fmt.Fprintf(c.out, "  Minimum bid for %d shares of #%d: %s %s/share (%s %s total)\n",
			q.Shares, q.StockID, q.Amount, c.unit, total, c.unit)
	default:
		fmt.Fprintf(c.out, "  Quick %s %d shares of #%d: %s %s total, %s %s/share (tradable: %d)\n",
			q.Side, q.Shares, q.StockID, q.Amount, c.unit, q.PerShare, c.unit, q.Bound)
	}
	fmt.Fprintf(c.out, "  Quoted at %s, advisory: the engine prices the trade on execution\n",
		q.QuotedAt.Format("15:04:05"))
}

// PrintResult imprime el resultado de un envío.
func (c *Console) PrintResult(res domain.TxResult, err error) {
	if err == nil {
		fmt.Fprintf(c.out, "  OK tx %s (height %d, gas %d)\n", res.TxHash, res.Height, res.GasUsed)
		return
	}
	var se *domain.SubmissionError
	switch {
	case errors.As(err, &se):
		fmt.Fprintf(c.out, "  REJECTED: %s\n", se.Message)
	case errors.Is(err, domain.ErrTimeout):
		fmt.Fprintf(c.out, "  TIMEOUT: not confirmed in time, check history before retrying\n")
	default:
		fmt.Fprintf(c.out, "  ERROR: %s\n", domain.EngineMessage(err))
	}
}

// PrintCountdown imprime una línea con el tiempo restante y una barra.
func (c *Console) PrintCountdown(ticker string, st domain.CountdownState) {
	if st.Expired {
		fmt.Fprintf(c.out, "%-6s auction ended\n", ticker)
		return
	}
	filled := int(st.PercentageLeft / 100 * 20)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
	urgent := ""
	if st.Urgent {
		urgent = " ⚠ ending soon"
	}
	fmt.Fprintf(c.out, "%-6s %02d:%02d:%02d %s %5.1f%%%s\n",
		ticker, st.Hours, st.Minutes, st.Seconds, bar, st.PercentageLeft, urgent)
}

// PrintSubmissions imprime el historial del journal.
func (c *Console) PrintSubmissions(subs []domain.Submission) {
	if len(subs) == 0 {
		fmt.Fprintln(c.out, "  No submissions recorded.")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Intent", "Stock", "Shares", "Funds", "Status", "Tx", "Message")
	for _, s := range subs {
		table.Append(
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(s.Intent.Kind),
			idLabel(s.Intent.StockID),
			countLabel(s.Intent.Shares),
			c.money(s.Intent.Funds),
			string(s.Status),
			truncate(s.TxHash, 12),
			truncate(s.Message, c.width),
		)
	}
	table.Render()
}

func (c *Console) stocks(title string, v domain.View[domain.StockSummary]) {
	if !c.header(title, v.Status, v.Err, len(v.Items)) {
		return
	}
	now := c.now()
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ticker", "State", "Ends", "Holders", "Bids", "Lowest")
	for _, s := range v.Items {
		lowest := s.LowestPrice
		if s.State == domain.LifecycleInAuction {
			lowest = s.LowestBid
		}
		table.Append(
			fmt.Sprintf("%d", s.ID),
			s.Ticker,
			s.State.Label(),
			endsLabel(s.Stock, now),
			fmt.Sprintf("%d", s.TotalShareholders),
			fmt.Sprintf("%d", s.TotalBids),
			c.money(lowest),
		)
	}
	table.Render()
}

func (c *Console) bids(title string, v domain.View[domain.Bid]) {
	if !c.header(title, v.Status, v.Err, len(v.Items)) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Stock", "Bidder", "Price", "Requested", "Remaining", "Total", "Status")
	for _, b := range v.Items {
		table.Append(
			fmt.Sprintf("%d", b.ID),
			fmt.Sprintf("%d", b.StockID),
			compactName(b.Bidder, 16),
			c.money(b.PricePerShare),
			fmt.Sprintf("%d", b.SharesRequested),
			fmt.Sprintf("%d", b.RemainingShares),
			c.money(b.Total()),
			string(b.Status()),
		)
	}
	table.Render()
}

func (c *Console) shares(v domain.View[domain.Holding]) {
	if !c.header("MY SHARES", v.Status, v.Err, len(v.Items)) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Stock", "Ticker", "Shares", "Last price", "Value")
	for _, h := range v.Items {
		table.Append(
			fmt.Sprintf("%d", h.StockID),
			h.Ticker,
			fmt.Sprintf("%d", h.Shares),
			c.money(h.ValuePerShare),
			c.money(h.TotalValue()),
		)
	}
	table.Render()
}

func (c *Console) orders(v domain.View[domain.Order]) {
	if !c.header("MY ORDERS", v.Status, v.Err, len(v.Items)) {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Side", "Ticker", "Shares", "Filled", "Price", "Total", "Status", "Created")
	for _, o := range v.Items {
		table.Append(
			fmt.Sprintf("%d", o.ID),
			strings.ToUpper(string(o.Side)),
			o.Ticker,
			fmt.Sprintf("%d", o.Shares),
			fmt.Sprintf("%d", o.FilledShares),
			c.money(o.PricePerShare),
			c.money(o.TotalPrice()),
			string(o.Status),
			o.CreatedAt.Local().Format("01-02 15:04"),
		)
	}
	table.Render()
}

// header imprime el título de una sección y dice si hay filas que pintar.
func (c *Console) header(title string, status domain.ViewStatus, err error, n int) bool {
	switch status {
	case domain.ViewNotConnected:
		fmt.Fprintf(c.out, "\n── %s ── (connect a wallet)\n", title)
		return false
	case domain.ViewFailed:
		fmt.Fprintf(c.out, "\n── %s ── ⚠ %s\n", title, truncate(domain.EngineMessage(err), c.width*2))
		return false
	}
	fmt.Fprintf(c.out, "\n── %s (%d) ──\n", title, n)
	if n == 0 {
		fmt.Fprintln(c.out, "  (none)")
		return false
	}
	return true
}

func (c *Console) money(m domain.Micro) string {
	if m == 0 {
		return "-"
	}
	return m.String() + " " + c.unit
}

// --- helpers ---

// displayUnit: "uhuahua" → "HUAHUA".
func displayUnit(denom string) string {
	d := strings.TrimPrefix(strings.ToLower(denom), "u")
	if d == "" {
		return "?"
	}
	return strings.ToUpper(d)
}

func endsLabel(s domain.Stock, now time.Time) string {
	if s.AuctionEnd == nil {
		return "-"
	}
	if s.Lifecycle() != domain.LifecycleInAuction {
		return s.AuctionEnd.Local().Format("2006-01-02")
	}
	st := domain.Countdown(*s.AuctionEnd, now, domain.DefaultAuctionWindow)
	if st.Expired {
		return "ending"
	}
	return fmt.Sprintf("%02d:%02d:%02d", st.Hours, st.Minutes, st.Seconds)
}

func idLabel(id uint64) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}

func countLabel(n uint64) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// compactName acorta direcciones largas dejando principio y final.
func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	keep := (maxLen - 3) / 2
	return s[:keep] + "..." + s[len(s)-keep:]
}
