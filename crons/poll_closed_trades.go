package crons

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/mt5"
	"gitlab.com/vtindex/backoffice_api/service"
	"gitlab.com/vtindex/backoffice_api/service/commission"
)

// startupLookback is how far back the first poll reaches, so trades closed
// during a restart are not lost. Replays are no-ops in the ledger.
const startupLookback = 15 * time.Minute

// tradePoller pulls closed deals from the manager bridge and feeds them to
// the commission engine. The window only advances after a fully processed
// batch, so a bridge outage simply widens the next window.
type tradePoller struct {
	service *service.Service
	mu      sync.Mutex
	from    time.Time
}

func newTradePoller(srv *service.Service) *tradePoller {
	return &tradePoller{
		service: srv,
		from:    time.Now().UTC().Add(-startupLookback),
	}
}

// Poll processes one window of closed trades
func (p *tradePoller) Poll(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	to := time.Now().UTC()
	deals, err := p.service.GetMT5().GetClosedTrades(ctx, p.from, to)
	if err != nil {
		log.Error().Err(err).
			Str("section", "crons").
			Str("action", "poll_closed_trades").
			Time("from", p.from).
			Msg("Unable to read closed trades")
		return
	}

	engine := p.service.GetCommissionEngine()
	failed := 0
	for _, deal := range deals {
		if err := engine.OnTradeClosed(ctx, tradeEventFromDeal(deal)); err != nil {
			failed++
			log.Error().Err(err).
				Str("section", "crons").
				Str("action", "poll_closed_trades").
				Str("position_id", deal.PositionID).
				Msg("Unable to process closed trade")
		}
	}
	if failed > 0 {
		// keep the window so the failed deals are replayed next tick
		return
	}
	p.from = to
}

func tradeEventFromDeal(deal mt5.Deal) commission.TradeEvent {
	closeTime := deal.CloseTime()
	return commission.TradeEvent{
		PositionID:      deal.PositionID,
		TradingAccount:  deal.Login,
		TotalCommission: deal.Commission,
		LotSize:         deal.Lots,
		Profit:          deal.Profit,
		Symbol:          deal.Symbol,
		PositionType:    deal.PositionType,
		Direction:       deal.Direction,
		DealTicket:      deal.DealTicket,
		CloseTime:       &closeTime,
	}
}
