package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/alejandrodnm/influstock/internal/domain"
)

const (
	msgExecuteContractType = "wasm/MsgExecuteContract"
	pubKeySecp256k1Type    = "tendermint/PubKeySecp256k1"
)

// Coin es un monto en micro-unidades de un denom.
type Coin struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

type Fee struct {
	Amount []Coin `json:"amount"`
	Gas    string `json:"gas"`
}

// Campos en orden alfabético: el sign doc amino se serializa ordenado.
type executeValue struct {
	Contract string          `json:"contract"`
	Funds    []Coin          `json:"funds"`
	Msg      json.RawMessage `json:"msg"`
	Sender   string          `json:"sender"`
}

type Msg struct {
	Type  string       `json:"type"`
	Value executeValue `json:"value"`
}

type PubKey struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Signature struct {
	PubKey    PubKey `json:"pub_key"`
	Signature string `json:"signature"`
}

// StdTx es la tx amino que acepta el endpoint legacy /txs.
type StdTx struct {
	Msg        []Msg       `json:"msg"`
	Fee        Fee         `json:"fee"`
	Signatures []Signature `json:"signatures"`
	Memo       string      `json:"memo"`
}

type signDoc struct {
	AccountNumber string `json:"account_number"`
	ChainID       string `json:"chain_id"`
	Fee           Fee    `json:"fee"`
	Memo          string `json:"memo"`
	Msgs          []Msg  `json:"msgs"`
	Sequence      string `json:"sequence"`
}

// Payloads del contrato. u64 viaja como número y u128 como string.
type stockIDPayload struct {
	StockID uint64 `json:"stock_id"`
}

type createStockPayload struct {
	Ticker string `json:"ticker"`
}

type pricedPayload struct {
	StockID       uint64 `json:"stock_id"`
	PricePerShare string `json:"price_per_share"`
	Shares        uint64 `json:"shares"`
}

type cancelBuyPayload struct {
	BuyOrderID uint64 `json:"buy_order_id"`
}

type cancelSellPayload struct {
	SellOrderID uint64 `json:"sell_order_id"`
}

type quickSellPayload struct {
	StockID       uint64 `json:"stock_id"`
	Shares        uint64 `json:"shares"`
	PricePerShare string `json:"price_per_share"`
	Slippage      uint64 `json:"slippage"`
}

type quickBuyPayload struct {
	StockID  uint64 `json:"stock_id"`
	Shares   uint64 `json:"shares"`
	Slippage uint64 `json:"slippage"`
}

// ExecuteMsg compone el mensaje de ejecución del contrato para un intent.
func ExecuteMsg(intent domain.TxIntent) (json.RawMessage, error) {
	var payload any
	switch intent.Kind {
	case domain.IntentCreateStock:
		payload = createStockPayload{Ticker: intent.Ticker}
	case domain.IntentStartAuction, domain.IntentEndAuction:
		payload = stockIDPayload{StockID: intent.StockID}
	case domain.IntentPlaceBid, domain.IntentCreateBuyOrder, domain.IntentCreateSellOrder:
		payload = pricedPayload{
			StockID:       intent.StockID,
			PricePerShare: u128(intent.PricePerShare),
			Shares:        intent.Shares,
		}
	case domain.IntentCancelBuyOrder:
		payload = cancelBuyPayload{BuyOrderID: intent.OrderID}
	case domain.IntentCancelSellOrder:
		payload = cancelSellPayload{SellOrderID: intent.OrderID}
	case domain.IntentQuickSell:
		payload = quickSellPayload{
			StockID:       intent.StockID,
			Shares:        intent.Shares,
			PricePerShare: u128(intent.PricePerShare),
			Slippage:      intent.Slippage,
		}
	case domain.IntentQuickBuy:
		payload = quickBuyPayload{StockID: intent.StockID, Shares: intent.Shares, Slippage: intent.Slippage}
	default:
		return nil, fmt.Errorf("wallet.ExecuteMsg: unknown intent %q", intent.Kind)
	}

	b, err := json.Marshal(map[string]any{string(intent.Kind): payload})
	if err != nil {
		return nil, fmt.Errorf("wallet.ExecuteMsg: %w", err)
	}
	return b, nil
}

// SignBytes serializa el sign doc amino con claves ordenadas y sin espacios.
func SignBytes(chainID string, accountNumber, sequence uint64, fee Fee, msgs []Msg, memo string) ([]byte, error) {
	doc := signDoc{
		AccountNumber: strconv.FormatUint(accountNumber, 10),
		ChainID:       chainID,
		Fee:           fee,
		Memo:          memo,
		Msgs:          msgs,
		Sequence:      strconv.FormatUint(sequence, 10),
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("wallet.SignBytes: %w", err)
	}
	return sortJSON(raw)
}

// sortJSON re-serializa con claves ordenadas en todos los niveles.
// UseNumber evita perder precisión en enteros grandes.
func sortJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("sort json: %w", err)
	}
	return json.Marshal(v)
}

func coins(amount domain.Micro, denom string) []Coin {
	if amount == 0 {
		return []Coin{}
	}
	return []Coin{{Amount: strconv.FormatUint(uint64(amount), 10), Denom: denom}}
}

func u128(m domain.Micro) string {
	return strconv.FormatUint(uint64(m), 10)
}
