package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// AccountInfo es lo que hace falta para firmar: número de cuenta y secuencia.
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// BroadcastResult es la respuesta de CheckTx.
type BroadcastResult struct {
	TxHash string
	Code   uint32
	RawLog string
}

// TxStatus es el estado de una tx ya incluida en un bloque.
type TxStatus struct {
	Found   bool
	TxHash  string
	Height  int64
	GasUsed int64
	Code    uint32
	RawLog  string
}

// GetBalance devuelve el saldo de address en el denom configurado.
func (c *Client) GetBalance(ctx context.Context, address string) (domain.Micro, error) {
	u := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s/by_denom?denom=%s",
		c.lcdBase, url.PathEscape(address), url.QueryEscape(c.denom))
	var resp balanceResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return 0, fmt.Errorf("ledger.GetBalance %s: %w", address, err)
	}
	if resp.Balance.Amount == "" {
		return 0, nil
	}
	amount, err := strconv.ParseUint(resp.Balance.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ledger.GetBalance %s: parse amount %q: %w", address, resp.Balance.Amount, err)
	}
	return domain.Micro(amount), nil
}

// GetAccount lee número de cuenta y secuencia del módulo auth.
func (c *Client) GetAccount(ctx context.Context, address string) (AccountInfo, error) {
	u := fmt.Sprintf("%s/cosmos/auth/v1beta1/accounts/%s", c.lcdBase, url.PathEscape(address))
	var resp accountResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return AccountInfo{}, fmt.Errorf("ledger.GetAccount %s: %w", address, err)
	}
	return AccountInfo{
		Address:       address,
		AccountNumber: uint64(resp.Account.AccountNumber),
		Sequence:      uint64(resp.Account.Sequence),
	}, nil
}

// BroadcastTx envía una StdTx firmada al endpoint legacy /txs en modo sync.
// No reintenta nunca.
func (c *Client) BroadcastTx(ctx context.Context, tx any) (BroadcastResult, error) {
	body := map[string]any{"tx": tx, "mode": "sync"}
	var resp broadcastResponse
	if err := c.postOnce(ctx, c.lcdBase+"/txs", body, &resp); err != nil {
		return BroadcastResult{}, fmt.Errorf("ledger.BroadcastTx: %w", err)
	}
	return BroadcastResult{TxHash: resp.TxHash, Code: resp.Code, RawLog: resp.RawLog}, nil
}

// GetTx busca una tx por hash. Found=false mientras no esté en un bloque.
func (c *Client) GetTx(ctx context.Context, hash string) (TxStatus, error) {
	u := fmt.Sprintf("%s/cosmos/tx/v1beta1/txs/%s", c.lcdBase, url.PathEscape(hash))
	var resp txResponse
	if err := c.get(ctx, u, &resp); err != nil {
		var ee *domain.EngineError
		if errors.As(err, &ee) && (ee.Status == http.StatusNotFound || strings.Contains(strings.ToLower(ee.Message), "not found")) {
			return TxStatus{TxHash: hash}, nil
		}
		return TxStatus{}, fmt.Errorf("ledger.GetTx %s: %w", hash, err)
	}
	r := resp.TxResponse
	return TxStatus{
		Found:   true,
		TxHash:  r.TxHash,
		Height:  int64(r.Height),
		GasUsed: int64(r.GasUsed),
		Code:    r.Code,
		RawLog:  r.RawLog,
	}, nil
}
