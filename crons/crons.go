package crons

import (
	"context"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/config"
	"gitlab.com/vtindex/backoffice_api/service"
)

// Crons holds the running scheduler and the state shared by its jobs
type Crons struct {
	scheduler *cron.Cron
	service   *service.Service
	trades    *tradePoller
	ctx       context.Context
}

// Start initiates the crons based on the given configuration
func Start(ctx context.Context, srv *service.Service, cfg config.Config) *Crons {
	c := &Crons{
		scheduler: cron.New(),
		service:   srv,
		trades:    newTradePoller(srv),
		ctx:       ctx,
	}
	for id, schedule := range cfg.Crons {
		callback := c.getCronByID(id)
		if err := c.scheduler.AddFunc(schedule, callback); err != nil {
			log.Error().Err(err).
				Str("section", "crons").
				Str("action", "start").
				Str("cron_id", id).
				Msg("Unable to schedule cron")
		}
	}
	c.scheduler.Start()
	return c
}

func (c *Crons) getCronByID(id string) func() {
	switch id {
	case "poll_closed_trades":
		return func() { c.trades.Poll(c.ctx) }
	case "prune_mt5_send_dedup":
		return c.CronPruneMT5SendDedup
	case "prune_refresh_token_blacklist":
		return c.CronPruneRefreshTokenBlacklist
	case "daily_summary":
		return c.CronDailySummary
	}
	log.Warn().
		Str("section", "crons").
		Str("action", "start").
		Str("cron_id", id).
		Msg("Unknown cron id in configuration")
	return func() {}
}

// Stop halts the scheduler. Jobs already running finish on their own.
func (c *Crons) Stop() {
	c.scheduler.Stop()
}
