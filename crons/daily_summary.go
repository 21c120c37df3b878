package crons

import (
	"time"

	"github.com/rs/zerolog/log"
)

// CronDailySummary mails the back office a snapshot of the pending queue and
// the commissions accrued since midnight UTC
func (c *Crons) CronDailySummary() {
	pending, err := c.service.GetRepo().CountPendingTransactions()
	if err != nil {
		log.Error().Err(err).
			Str("section", "crons").
			Str("action", "daily_summary").
			Msg("Unable to count pending transactions")
		return
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	commissionsToday, err := c.service.CommissionsSince(midnight)
	if err != nil {
		log.Error().Err(err).
			Str("section", "crons").
			Str("action", "daily_summary").
			Msg("Unable to sum commissions for today")
		return
	}

	c.service.SendDailySummaryEmail(pending, commissionsToday)
}
