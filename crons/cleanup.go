package crons

import (
	"time"

	"github.com/rs/zerolog/log"
)

// dedupRetention keeps resolved send-dedup rows long enough to survive any
// replayed approval, well past the longest bridge retry.
const dedupRetention = 24 * time.Hour

// CronPruneMT5SendDedup drops send-dedup rows past the retention window
func (c *Crons) CronPruneMT5SendDedup() {
	removed, err := c.service.GetRepo().PruneMT5SendDedup(dedupRetention)
	if err != nil {
		log.Error().Err(err).
			Str("section", "crons").
			Str("action", "prune_mt5_send_dedup").
			Msg("Unable to prune send dedup records")
		return
	}
	if removed > 0 {
		log.Info().
			Str("section", "crons").
			Str("action", "prune_mt5_send_dedup").
			Int64("removed", removed).
			Msg("Pruned send dedup records")
	}
}

// CronPruneRefreshTokenBlacklist drops blacklist entries whose tokens have
// expired on their own
func (c *Crons) CronPruneRefreshTokenBlacklist() {
	removed, err := c.service.GetRepo().PruneRefreshTokenBlacklist()
	if err != nil {
		log.Error().Err(err).
			Str("section", "crons").
			Str("action", "prune_refresh_token_blacklist").
			Msg("Unable to prune refresh token blacklist")
		return
	}
	if removed > 0 {
		log.Info().
			Str("section", "crons").
			Str("action", "prune_refresh_token_blacklist").
			Int64("removed", removed).
			Msg("Pruned refresh token blacklist")
	}
}
