package mt5

import (
	"context"
	"fmt"
	"time"

	"github.com/ericlagergren/decimal"
)

// MT5Error is a rejection reported by the manager bridge itself, as opposed
// to a transport failure reaching it.
type MT5Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MT5Error) Error() string {
	return fmt.Sprintf("mt5: [%d] %s", e.Code, e.Message)
}

// Deal is a closed trade as reported by the manager bridge
type Deal struct {
	PositionID     string       `json:"position_id"`
	DealTicket     string       `json:"deal_ticket"`
	Login          string       `json:"login"`
	Symbol         string       `json:"symbol"`
	PositionType   string       `json:"position_type"`
	Direction      string       `json:"direction"`
	Lots           *decimal.Big `json:"lots"`
	Profit         *decimal.Big `json:"profit"`
	Commission     *decimal.Big `json:"commission"`
	CloseTimestamp int64        `json:"close_timestamp"`
}

// CloseTime converts the bridge timestamp into a time value
func (d *Deal) CloseTime() time.Time {
	return time.Unix(d.CloseTimestamp, 0).UTC()
}

// Position is an open position as reported by the manager bridge
type Position struct {
	PositionID string       `json:"position_id"`
	Login      string       `json:"login"`
	Symbol     string       `json:"symbol"`
	Direction  string       `json:"direction"`
	Lots       *decimal.Big `json:"lots"`
	OpenPrice  *decimal.Big `json:"open_price"`
	Profit     *decimal.Big `json:"profit"`
}

// Gateway is the money-movement and trade-read interface against the MT5
// manager bridge. All balance changes performed by the back office go
// through it; MT5 stays the source of truth for balances.
type Gateway interface {
	Deposit(ctx context.Context, login string, amount *decimal.Big, comment string) error
	Withdraw(ctx context.Context, login string, amount *decimal.Big, comment string) error
	CreditIn(ctx context.Context, login string, amount *decimal.Big, comment string) error
	CreditOut(ctx context.Context, login string, amount *decimal.Big, comment string) error
	GetBalance(ctx context.Context, login string) (*decimal.Big, error)
	GetClosedTrades(ctx context.Context, from, to time.Time) ([]Deal, error)
	GetOpenPositions(ctx context.Context, login string) ([]Position, error)
}
