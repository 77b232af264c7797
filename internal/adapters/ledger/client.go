// Package ledger reads the settlement engine's state through the chain's LCD
// REST gateway: CosmWasm smart queries plus the bank and auth modules.
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/influstock/internal/domain"
)

const (
	defaultLCDBase = "https://rest.cosmos.directory/chihuahua"
	defaultDenom   = "uhuahua"

	// Los gateways públicos cortan alrededor de 20 req/s; nos quedamos en 10.
	queryRatePerSec = 10
	queryBurst      = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client del LCD con rate limiting. Solo reintenta lecturas
// que devuelven 429; los broadcasts se envían una sola vez.
type Client struct {
	http     *http.Client
	lcdBase  string
	contract string
	denom    string
	limiter  *rate.Limiter
}

// NewClient crea un Client para el contrato dado.
// Si lcdBase o denom están vacíos, usa los valores por defecto.
func NewClient(lcdBase, contract, denom string) *Client {
	if lcdBase == "" {
		lcdBase = defaultLCDBase
	}
	if denom == "" {
		denom = defaultDenom
	}
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		lcdBase:  strings.TrimRight(lcdBase, "/"),
		contract: contract,
		denom:    denom,
		limiter:  rate.NewLimiter(queryRatePerSec, queryBurst),
	}
}

// Denom returns the base currency denom the client reads balances in.
func (c *Client) Denom() string { return c.denom }

// smartQuery ejecuta una smart query del contrato y decodifica "data" en out.
func (c *Client) smartQuery(ctx context.Context, query, out any) error {
	raw, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	u := fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s",
		c.lcdBase, url.PathEscape(c.contract), url.PathEscape(encoded))

	var resp smartQueryResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return errors.New("empty smart query response")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode query data: %w", err)
	}
	return nil
}

// get hace un GET con rate limiting y retries ante 429.
func (c *Client) get(ctx context.Context, u string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by LCD", "attempt", attempt+1)
			if err := c.sleep(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, out)
	}
	return fmt.Errorf("exhausted %d retries on rate limit", maxRetries)
}

// postOnce hace un POST JSON sin retries.
func (c *Client) postOnce(ctx context.Context, u string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return decodeResponse(resp, out)
}

// decodeResponse cierra el body. Los errores HTTP se devuelven como
// *domain.EngineError con el mensaje del contrato limpio.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &domain.EngineError{Status: resp.StatusCode, Message: engineMessage(resp.StatusCode, body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// engineMessage saca el mensaje del contrato de un error del gateway gRPC.
// "rpc error: code = Unknown desc = Generic error: Not enough shares: query wasm contract failed: unknown request"
// queda en "Generic error: Not enough shares".
func engineMessage(status int, body []byte) string {
	var e lcdError
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		msg = e.Message
	}
	if i := strings.Index(msg, "desc = "); i >= 0 {
		msg = msg[i+len("desc = "):]
	}
	for _, suffix := range []string{": query wasm contract failed", ": execute wasm contract failed"} {
		if i := strings.Index(msg, suffix); i >= 0 {
			msg = msg[:i]
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return msg
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
