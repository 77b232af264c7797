package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/influstock/internal/adapters/ledger"
	"github.com/alejandrodnm/influstock/internal/domain"
)

const (
	defaultGasLimit     = uint64(400_000)
	defaultPollInterval = 2 * time.Second
)

// Chain es la parte del LCD que hace falta para firmar y confirmar una tx.
type Chain interface {
	GetAccount(ctx context.Context, address string) (ledger.AccountInfo, error)
	BroadcastTx(ctx context.Context, tx any) (ledger.BroadcastResult, error)
	GetTx(ctx context.Context, hash string) (ledger.TxStatus, error)
}

// Config fija el destino y el coste de cada tx.
type Config struct {
	ChainID  string
	Contract string
	Address  string // cuenta del signer
	Denom    string
	GasLimit uint64
	// GasPrice en micro-unidades por unidad de gas.
	GasPrice     float64
	PollInterval time.Duration
}

// Broadcaster implements ports.TxBroadcaster.
type Broadcaster struct {
	chain  Chain
	signer *Signer
	cfg    Config
}

func NewBroadcaster(chain Chain, signer *Signer, cfg Config) *Broadcaster {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = defaultGasLimit
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Broadcaster{chain: chain, signer: signer, cfg: cfg}
}

// Broadcast firma el intent como una única MsgExecuteContract, la envía una
// vez y espera a que entre en un bloque o a que venza ctx.
func (b *Broadcaster) Broadcast(ctx context.Context, sender string, intent domain.TxIntent) (domain.TxResult, error) {
	if sender != b.cfg.Address {
		return domain.TxResult{}, fmt.Errorf("wallet.Broadcast: sender %s is not the configured wallet %s", sender, b.cfg.Address)
	}

	execMsg, err := ExecuteMsg(intent)
	if err != nil {
		return domain.TxResult{}, err
	}

	acct, err := b.chain.GetAccount(ctx, sender)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("wallet.Broadcast: %w", asTimeout(ctx, err))
	}

	msgs := []Msg{{
		Type: msgExecuteContractType,
		Value: executeValue{
			Contract: b.cfg.Contract,
			Funds:    coins(intent.Funds, b.cfg.Denom),
			Msg:      execMsg,
			Sender:   sender,
		},
	}}
	fee := b.fee()

	signBytes, err := SignBytes(b.cfg.ChainID, acct.AccountNumber, acct.Sequence, fee, msgs, "")
	if err != nil {
		return domain.TxResult{}, err
	}
	sig, err := b.signer.Sign(signBytes)
	if err != nil {
		return domain.TxResult{}, err
	}

	tx := StdTx{
		Msg: msgs,
		Fee: fee,
		Signatures: []Signature{{
			PubKey:    PubKey{Type: pubKeySecp256k1Type, Value: b.signer.PubKeyBase64()},
			Signature: base64.StdEncoding.EncodeToString(sig),
		}},
	}

	res, err := b.chain.BroadcastTx(ctx, tx)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("wallet.Broadcast: %w", asTimeout(ctx, err))
	}
	if res.Code != 0 {
		slog.Warn("tx rejected at check", "intent", intent.Kind, "code", res.Code, "log", res.RawLog)
		return domain.TxResult{}, &domain.SubmissionError{TxHash: res.TxHash, Code: res.Code, Message: res.RawLog}
	}
	slog.Info("tx sent", "intent", intent.Kind, "stock_id", intent.StockID, "tx", res.TxHash)

	status, err := b.waitForTx(ctx, res.TxHash)
	if err != nil {
		return domain.TxResult{TxHash: res.TxHash}, err
	}
	if status.Code != 0 {
		slog.Warn("tx failed in block", "intent", intent.Kind, "tx", res.TxHash, "code", status.Code, "log", status.RawLog)
		return domain.TxResult{TxHash: res.TxHash}, &domain.SubmissionError{TxHash: res.TxHash, Code: status.Code, Message: status.RawLog}
	}

	slog.Info("tx confirmed", "intent", intent.Kind, "tx", res.TxHash, "height", status.Height, "gas_used", status.GasUsed)
	return domain.TxResult{TxHash: res.TxHash, Height: status.Height, GasUsed: status.GasUsed}, nil
}

// waitForTx consulta la tx hasta que aparezca en un bloque o venza ctx.
func (b *Broadcaster) waitForTx(ctx context.Context, hash string) (ledger.TxStatus, error) {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ledger.TxStatus{}, fmt.Errorf("wallet.Broadcast: tx %s not confirmed: %w", hash, domain.ErrTimeout)
		case <-ticker.C:
			status, err := b.chain.GetTx(ctx, hash)
			if err != nil {
				slog.Debug("tx lookup failed, retrying", "tx", hash, "err", err)
				continue
			}
			if status.Found {
				return status, nil
			}
		}
	}
}

// fee = ceil(gas_limit × gas_price).
func (b *Broadcaster) fee() Fee {
	amount := decimal.NewFromFloat(b.cfg.GasPrice).
		Mul(decimal.NewFromInt(int64(b.cfg.GasLimit))).
		Ceil()
	var coinsOut []Coin
	if amount.IsPositive() {
		coinsOut = []Coin{{Amount: amount.String(), Denom: b.cfg.Denom}}
	} else {
		coinsOut = []Coin{}
	}
	return Fee{Amount: coinsOut, Gas: strconv.FormatUint(b.cfg.GasLimit, 10)}
}

func asTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
