package mt5

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
)

// Config for the manager bridge connection
type Config struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

const defaultTimeout = 30 * time.Second

// Client talks to the MT5 manager bridge over HTTP. One request per
// operation; the bridge serialises against the trade server itself.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a gateway client for the manager bridge
func NewClient(cfg Config) *Client {
	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type bridgeResponse struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var bridge bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&bridge); err != nil {
		return fmt.Errorf("mt5: bad bridge response: %w", err)
	}
	if !bridge.Success {
		return &MT5Error{Code: bridge.Code, Message: bridge.Message}
	}
	if out != nil && bridge.Data != nil {
		return json.Unmarshal(bridge.Data, out)
	}
	return nil
}

type moneyRequest struct {
	Login   string `json:"login"`
	Amount  string `json:"amount"`
	Comment string `json:"comment"`
}

func (c *Client) money(ctx context.Context, path, login string, amount *decimal.Big, comment string) error {
	return c.call(ctx, http.MethodPost, path, moneyRequest{
		Login:   login,
		Amount:  amount.String(),
		Comment: comment,
	}, nil)
}

// Deposit adds balance to an MT5 login
func (c *Client) Deposit(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return c.money(ctx, "/deposit", login, amount, comment)
}

// Withdraw removes balance from an MT5 login
func (c *Client) Withdraw(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return c.money(ctx, "/withdraw", login, amount, comment)
}

// CreditIn grants non-withdrawable credit to an MT5 login
func (c *Client) CreditIn(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return c.money(ctx, "/credit_in", login, amount, comment)
}

// CreditOut removes credit from an MT5 login
func (c *Client) CreditOut(ctx context.Context, login string, amount *decimal.Big, comment string) error {
	return c.money(ctx, "/credit_out", login, amount, comment)
}

// GetBalance reads the current balance of an MT5 login
func (c *Client) GetBalance(ctx context.Context, login string) (*decimal.Big, error) {
	var data struct {
		Balance *decimal.Big `json:"balance"`
	}
	err := c.call(ctx, http.MethodGet, "/balance?login="+login, nil, &data)
	if err != nil {
		return nil, err
	}
	return data.Balance, nil
}

// GetClosedTrades reads the deals closed in the given window. A transport
// failure is logged and returns an empty slice so the poller just retries
// the window on its next tick.
func (c *Client) GetClosedTrades(ctx context.Context, from, to time.Time) ([]Deal, error) {
	deals := []Deal{}
	path := fmt.Sprintf("/closed_trades?from=%d&to=%d", from.Unix(), to.Unix())
	if err := c.call(ctx, http.MethodGet, path, nil, &deals); err != nil {
		if _, isBridge := err.(*MT5Error); isBridge {
			return nil, err
		}
		log.Warn().Err(err).
			Str("section", "mt5").
			Str("action", "get_closed_trades").
			Msg("Bridge unreachable, returning empty window")
		return []Deal{}, nil
	}
	return deals, nil
}

// GetOpenPositions reads the open positions of an MT5 login
func (c *Client) GetOpenPositions(ctx context.Context, login string) ([]Position, error) {
	positions := []Position{}
	err := c.call(ctx, http.MethodGet, "/open_positions?login="+login, nil, &positions)
	return positions, err
}
