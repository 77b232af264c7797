package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alejandrodnm/influstock/internal/application/countdown"
	"github.com/alejandrodnm/influstock/internal/application/trade"
	"github.com/alejandrodnm/influstock/internal/domain"
)

// command es un subcomando. signs marca los que firman transacciones;
// snapshots los que imprimen cada snapshot reconciliado.
type command struct {
	signs     bool
	snapshots bool
	run       func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"snapshot":      {snapshots: true, run: runSnapshot},
	"quote-bid":     {run: runQuoteBid},
	"countdown":     {run: runCountdown},
	"history":       {run: runHistory},
	"bid":           {signs: true, run: runBid},
	"quick-sell":    {signs: true, run: runQuickTrade(trade.QuickSell)},
	"quick-buy":     {signs: true, run: runQuickTrade(trade.QuickBuy)},
	"buy-order":     {signs: true, run: runOrder(domain.SideBuy)},
	"sell-order":    {signs: true, run: runOrder(domain.SideSell)},
	"cancel-order":  {signs: true, run: runCancelOrder},
	"create-stock":  {signs: true, run: runCreateStock},
	"start-auction": {signs: true, run: runAuction(true)},
	"end-auction":   {signs: true, run: runAuction(false)},
}

func runSnapshot(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	watch := fs.String("watch", "", "comma separated stock ids whose open bids to include")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parseIDs(*watch)
	if err != nil {
		return err
	}
	for _, id := range ids {
		a.reconciler.Watch(id)
	}
	a.connect(ctx)
	return nil
}

func runQuoteBid(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("quote-bid", flag.ContinueOnError)
	stockID := fs.Uint64("stock", 0, "stock id")
	shares := fs.Uint64("shares", 0, "shares to win")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q, err := a.quotes.MinimumBidPrice(ctx, *stockID, *shares)
	if err != nil {
		return err
	}
	a.console.PrintQuote(q)
	return nil
}

func runCountdown(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("countdown", flag.ContinueOnError)
	stockID := fs.Uint64("stock", 0, "stock id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	stock, err := a.client.GetStockByID(ctx, *stockID)
	if err != nil {
		return err
	}
	if stock.AuctionEnd == nil {
		return fmt.Errorf("stock %s has no auction scheduled", stock.Ticker)
	}

	m := countdown.NewMonitor(*stock.AuctionEnd,
		countdown.WithTick(a.cfg.CountdownTick()),
		countdown.WithWindow(a.cfg.AuctionWindow()),
	)
	err = m.Run(ctx, func(st domain.CountdownState) {
		a.console.PrintCountdown(stock.Ticker, st)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "max submissions to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	subs, err := a.journal.ListSubmissions(ctx, a.cfg.Wallet.Address, *limit)
	if err != nil {
		return err
	}
	a.console.PrintSubmissions(subs)
	return nil
}

func runBid(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("bid", flag.ContinueOnError)
	stockID := fs.Uint64("stock", 0, "stock id")
	shares := fs.Uint64("shares", 0, "shares to bid for")
	price := fs.String("price", "", "price per share, defaults to the quoted minimum")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.reconciler.Watch(*stockID)
	a.connect(ctx)

	flow := a.composer.NewFlow(trade.AuctionBid, *stockID)
	q, err := quoteFlow(ctx, a, flow, *shares)
	if err != nil {
		return err
	}

	bidPrice := q.Amount
	if *price != "" {
		if bidPrice, err = domain.ParseMicro(*price); err != nil {
			return err
		}
	}
	total, _ := bidPrice.Times(q.Shares)
	if !a.confirm(fmt.Sprintf("Bid %s per share for %d shares (%s locked)?", bidPrice, q.Shares, total)) {
		return nil
	}

	res, err := flow.SubmitBid(ctx, bidPrice)
	a.console.PrintResult(res, err)
	return err
}

func runQuickTrade(kind trade.Kind) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet(string(kind), flag.ContinueOnError)
		stockID := fs.Uint64("stock", 0, "stock id")
		shares := fs.Uint64("shares", 0, "shares to trade")
		slippage := fs.Uint64("slippage", a.cfg.DefaultSlippage(), "slippage tolerance in percent")
		if err := fs.Parse(args); err != nil {
			return err
		}

		a.connect(ctx)

		flow := a.composer.NewFlow(kind, *stockID)
		q, err := quoteFlow(ctx, a, flow, *shares)
		if err != nil {
			return err
		}

		verb := "Sell"
		if kind == trade.QuickBuy {
			verb = "Buy"
		}
		if !a.confirm(fmt.Sprintf("%s %d shares for about %s, slippage %d%%?", verb, q.Shares, q.Amount, *slippage)) {
			return nil
		}

		res, err := flow.SubmitTrade(ctx, *slippage)
		a.console.PrintResult(res, err)
		return err
	}
}

func runOrder(side domain.OrderSide) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet(string(side)+"-order", flag.ContinueOnError)
		stockID := fs.Uint64("stock", 0, "stock id")
		shares := fs.Uint64("shares", 0, "shares")
		priceStr := fs.String("price", "", "limit price per share")
		if err := fs.Parse(args); err != nil {
			return err
		}
		price, err := domain.ParseMicro(*priceStr)
		if err != nil {
			return err
		}

		a.connect(ctx)
		total, _ := price.Times(*shares)
		if !a.confirm(fmt.Sprintf("%s order: %d shares of #%d at %s (%s total)?", side, *shares, *stockID, price, total)) {
			return nil
		}

		var res domain.TxResult
		if side == domain.SideBuy {
			res, err = a.composer.CreateBuyOrder(ctx, *stockID, *shares, price)
		} else {
			res, err = a.composer.CreateSellOrder(ctx, *stockID, *shares, price)
		}
		a.console.PrintResult(res, err)
		return err
	}
}

func runCancelOrder(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cancel-order", flag.ContinueOnError)
	side := fs.String("side", "", "buy|sell")
	orderID := fs.Uint64("id", 0, "order id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.connect(ctx)

	var (
		res domain.TxResult
		err error
	)
	switch domain.OrderSide(strings.ToLower(*side)) {
	case domain.SideBuy:
		res, err = a.composer.CancelBuyOrder(ctx, *orderID)
	case domain.SideSell:
		res, err = a.composer.CancelSellOrder(ctx, *orderID)
	default:
		return fmt.Errorf("-side must be buy or sell, got %q", *side)
	}
	a.console.PrintResult(res, err)
	return err
}

func runCreateStock(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create-stock", flag.ContinueOnError)
	ticker := fs.String("ticker", "", "2 to 5 letters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.connect(ctx)
	res, err := a.composer.CreateStock(ctx, *ticker)
	a.console.PrintResult(res, err)
	return err
}

func runAuction(start bool) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := flag.NewFlagSet("auction", flag.ContinueOnError)
		stockID := fs.Uint64("stock", 0, "stock id")
		if err := fs.Parse(args); err != nil {
			return err
		}

		a.connect(ctx)

		var (
			res domain.TxResult
			err error
		)
		if start {
			res, err = a.composer.StartAuction(ctx, *stockID)
		} else {
			if !a.confirm(fmt.Sprintf("End the auction of #%d now and distribute winning bids?", *stockID)) {
				return nil
			}
			res, err = a.composer.EndAuction(ctx, *stockID)
		}
		a.console.PrintResult(res, err)
		return err
	}
}

// quoteFlow fija la cantidad y cotiza, imprimiendo la cotización.
func quoteFlow(ctx context.Context, a *app, flow *trade.Flow, shares uint64) (domain.Quote, error) {
	if err := flow.SetAmount(shares); err != nil {
		return domain.Quote{}, err
	}
	q, err := flow.RequestQuote(ctx)
	if err != nil {
		return domain.Quote{}, err
	}
	a.console.PrintQuote(q)
	return q, nil
}

// confirm pregunta por stdin salvo que se haya pasado -yes.
func (a *app) confirm(prompt string) bool {
	if a.confirmed {
		return true
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	slog.Info("aborted by user")
	return false
}

func parseIDs(s string) ([]uint64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []uint64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad stock id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
