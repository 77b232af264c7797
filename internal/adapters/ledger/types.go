package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexUint acepta números JSON y strings numéricos: el contrato serializa
// u64 como número y u128 como string.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("flexUint %s: %w", b, err)
	}
	*f = flexUint(v)
	return nil
}

type smartQueryResponse struct {
	Data json.RawMessage `json:"data"`
}

type lcdError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- smart query responses ---

type stockRaw struct {
	ID                    flexUint        `json:"id"`
	Ticker                string          `json:"ticker"`
	Influencer            string          `json:"influencer"`
	TotalShares           flexUint        `json:"total_shares"`
	AuctionStart          json.RawMessage `json:"auction_start"`
	AuctionEnd            json.RawMessage `json:"auction_end"`
	CreatedAt             json.RawMessage `json:"created_at"`
	MarkedAsActiveAuction bool            `json:"marked_as_active_auction"`
}

type stockResponse struct {
	Stock stockRaw `json:"stock"`
}

type stocksResponse struct {
	Stocks []stockRaw `json:"stocks"`
}

type bidRaw struct {
	ID              flexUint        `json:"id"`
	StockID         flexUint        `json:"stock_id"`
	Bidder          string          `json:"bidder"`
	PricePerShare   flexUint        `json:"price_per_share"`
	SharesRequested flexUint        `json:"shares_requested"`
	RemainingShares flexUint        `json:"remaining_shares"`
	CreatedAt       json.RawMessage `json:"created_at"`
	Open            flexUint        `json:"open"`
	Active          bool            `json:"active"`
}

type bidsResponse struct {
	Bids []bidRaw `json:"bids"`
}

type minimumBidPriceResponse struct {
	MinPrice        flexUint `json:"min_price"`
	SharesRequested flexUint `json:"shares_requested"`
}

type shareRaw struct {
	ID         flexUint `json:"id"`
	StockID    flexUint `json:"stock_id"`
	NoOfShares flexUint `json:"no_of_shares"`
	Owner      string   `json:"owner"`
}

type sharesResponse struct {
	Shares []shareRaw `json:"shares"`
}

type priceResponse struct {
	TotalPrice      flexUint `json:"total_price"`
	PricePerShare   flexUint `json:"price_per_share"`
	RequestedShares flexUint `json:"requested_shares"`
}

type volumeResponse struct {
	Amount flexUint `json:"amount"`
}

type buyOrderRaw struct {
	ID              flexUint        `json:"id"`
	StockID         flexUint        `json:"stock_id"`
	RequestedShares flexUint        `json:"requested_shares"`
	PricePerShare   flexUint        `json:"price_per_share"`
	BoughtShares    flexUint        `json:"bought_shares"`
	Owner           string          `json:"owner"`
	CreatedAt       json.RawMessage `json:"created_at"`
	ResolvedAt      json.RawMessage `json:"resolved_at"`
}

type buyOrdersResponse struct {
	Orders []buyOrderRaw `json:"orders"`
}

type sellOrderRaw struct {
	ID              flexUint        `json:"id"`
	StockID         flexUint        `json:"stock_id"`
	AvailableShares flexUint        `json:"available_shares"`
	PricePerShare   flexUint        `json:"price_per_share"`
	SoldShares      flexUint        `json:"sold_shares"`
	Owner           string          `json:"owner"`
	CreatedAt       json.RawMessage `json:"created_at"`
	ResolvedAt      json.RawMessage `json:"resolved_at"`
}

type sellOrdersResponse struct {
	Orders []sellOrderRaw `json:"orders"`
}

type saleRaw struct {
	ID            flexUint        `json:"id"`
	StockID       flexUint        `json:"stock_id"`
	NoOfShares    flexUint        `json:"no_of_shares"`
	PricePerShare flexUint        `json:"price_per_share"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	CreatedAt     json.RawMessage `json:"created_at"`
}

type salesResponse struct {
	Sales []saleRaw `json:"sales"`
}

// --- cosmos modules ---

type balanceResponse struct {
	Balance struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"balance"`
}

type accountResponse struct {
	Account struct {
		Type          string   `json:"@type"`
		Address       string   `json:"address"`
		AccountNumber flexUint `json:"account_number"`
		Sequence      flexUint `json:"sequence"`
	} `json:"account"`
}

type broadcastResponse struct {
	Height flexUint `json:"height"`
	TxHash string   `json:"txhash"`
	Code   uint32   `json:"code"`
	RawLog string   `json:"raw_log"`
}

type txResponse struct {
	TxResponse struct {
		Height  flexUint `json:"height"`
		TxHash  string   `json:"txhash"`
		Code    uint32   `json:"code"`
		RawLog  string   `json:"raw_log"`
		GasUsed flexUint `json:"gas_used"`
	} `json:"tx_response"`
}
