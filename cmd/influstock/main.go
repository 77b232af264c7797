package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/influstock/config"
	"github.com/alejandrodnm/influstock/internal/adapters/ledger"
	"github.com/alejandrodnm/influstock/internal/adapters/notify"
	"github.com/alejandrodnm/influstock/internal/adapters/storage"
	"github.com/alejandrodnm/influstock/internal/adapters/wallet"
	"github.com/alejandrodnm/influstock/internal/application/quote"
	"github.com/alejandrodnm/influstock/internal/application/reconcile"
	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/application/trade"
	"github.com/alejandrodnm/influstock/internal/application/views"
	"github.com/alejandrodnm/influstock/internal/ports"
)

const usage = `usage: influstock [flags] <command> [command flags]

read commands:
  snapshot      [-watch id,id]                      all views for the configured wallet
  quote-bid     -stock id -shares n                 minimum price to win n shares
  countdown     -stock id                           live countdown until the auction ends
  history       [-limit n]                          journaled submissions

trade commands (need wallet.private_key):
  bid           -stock id -shares n [-price p]      place an auction bid
  quick-sell    -stock id -shares n [-slippage pct]
  quick-buy     -stock id -shares n [-slippage pct]
  buy-order     -stock id -shares n -price p
  sell-order    -stock id -shares n -price p
  cancel-order  -side buy|sell -id order
  create-stock  -ticker T
  start-auction -stock id
  end-auction   -stock id

flags:
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	show := flag.Bool("show", false, "print the reconciled snapshot after trade commands")
	yes := flag.Bool("yes", false, "do not ask for confirmation before broadcasting")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	name, args := flag.Arg(0), flag.Args()[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		flag.Usage()
		os.Exit(2)
	}
	if cmd.signs && !cfg.CanSign() {
		slog.Error("command needs a signing key, set WALLET_PRIVATE_KEY", "command", name)
		os.Exit(1)
	}

	slog.Info("influstock starting",
		"config", *configPath,
		"command", name,
		"lcd", cfg.Chain.LCDBase,
		"contract", cfg.Chain.ContractAddress,
		"account", cfg.Wallet.Address,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg, cmd.snapshots || *show, *yes)
	if err != nil {
		slog.Error("failed to start", "err", err)
		os.Exit(1)
	}
	defer a.close()

	if err := cmd.run(ctx, a, args); err != nil {
		slog.Error("command failed", "command", name, "err", err)
		os.Exit(1)
	}
}

// app agrupa los servicios cableados para un comando.
type app struct {
	cfg        *config.Config
	client     *ledger.Client
	quotes     *quote.Engine
	reconciler *reconcile.Reconciler
	composer   *trade.Composer
	journal    *storage.SQLiteJournal
	console    *notify.Console
	confirmed  bool
}

func newApp(cfg *config.Config, printSnapshots, confirmed bool) (*app, error) {
	client := ledger.NewClient(cfg.Chain.LCDBase, cfg.Chain.ContractAddress, cfg.Chain.Denom)
	console := notify.NewConsole(cfg.Chain.Denom)

	quotes := quote.NewEngine(client, quote.Options{
		Timeout:   cfg.QuoteTimeout(),
		MaxShares: cfg.Trade.MaxShares,
	})

	var notifier ports.Notifier
	if printSnapshots {
		notifier = console
	}
	reconciler := reconcile.NewReconciler(views.NewFacade(client, quotes), notifier)

	journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open journal %q: %w", cfg.Storage.DSN, err)
	}

	deps := trade.Deps{
		Quotes:     quotes,
		Reconciler: reconciler,
		Shares:     client,
		Journal:    journal,
		Navigator:  console,
		Balances:   client,
	}
	if cfg.CanSign() {
		signer, err := wallet.NewSigner(cfg.Wallet.PrivateKey)
		if err != nil {
			journal.Close()
			return nil, fmt.Errorf("wallet key: %w", err)
		}
		deps.Broadcaster = wallet.NewBroadcaster(client, signer, wallet.Config{
			ChainID:  cfg.Chain.ChainID,
			Contract: cfg.Chain.ContractAddress,
			Address:  cfg.Wallet.Address,
			Denom:    cfg.Chain.Denom,
			GasLimit: cfg.Chain.GasLimit,
			GasPrice: cfg.Chain.GasPriceMicro,
		})
	}

	maxSlippage := cfg.MaxSlippage()
	composer := trade.NewComposer(deps, trade.Options{
		SubmitTimeout: cfg.SubmitTimeout(),
		QuoteTTL:      cfg.QuoteTTL(),
		MaxSlippage:   &maxSlippage,
	})

	return &app{
		cfg:        cfg,
		client:     client,
		quotes:     quotes,
		reconciler: reconciler,
		composer:   composer,
		journal:    journal,
		console:    console,
		confirmed:  confirmed,
	}, nil
}

// connect adopta la wallet configurada y hace el primer pase de reconciliación.
func (a *app) connect(ctx context.Context) session.Session {
	sess := session.Connect(a.cfg.Wallet.Address)
	a.reconciler.SessionChanged(ctx, sess)
	return sess
}

func (a *app) close() {
	if err := a.journal.Close(); err != nil {
		slog.Warn("journal close failed", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
