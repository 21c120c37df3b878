package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/config"
	"gitlab.com/vtindex/backoffice_api/conv"
	"gitlab.com/vtindex/backoffice_api/featureflags"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/monitor"
	"gitlab.com/vtindex/backoffice_api/mt5"
	"gitlab.com/vtindex/backoffice_api/queries"
)

// FlagDisableCommissionCreation pauses commission generation across the
// whole process. The config value is the fallback when the flag service is
// unreachable.
const FlagDisableCommissionCreation = "disable_commission_creation"

var hundred = decimal.New(100, 0)

// Engine turns closed trades into commission ledger rows and MT5 credits.
// It walks the client's referral chain and pays every eligible IB at its
// absolute hierarchy level.
type Engine struct {
	repo       *queries.Repo
	gateway    mt5.Gateway
	killSwitch bool
	maxDepth   int
}

// NewEngine creates a commission engine
func NewEngine(repo *queries.Repo, gateway mt5.Gateway, flags config.FeatureFlagsConfig, cfg config.CommissionConfig) *Engine {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 16
	}
	return &Engine{
		repo:       repo,
		gateway:    gateway,
		killSwitch: flags.DisableCommissionCreation,
		maxDepth:   maxDepth,
	}
}

// TradeEvent is one closed trade as received from the MT5 poller
type TradeEvent struct {
	PositionID      string
	TradingAccount  string
	TotalCommission *decimal.Big
	LotSize         *decimal.Big
	Profit          *decimal.Big
	Symbol          string
	PositionType    string
	Direction       string
	DealTicket      string
	CloseTime       *time.Time
}

// OnTradeClosed processes one closed trade. Safe to call multiple times for
// the same trade: the ledger's composite unique key makes replays no-ops and
// suppresses duplicate MT5 credits.
func (engine *Engine) OnTradeClosed(ctx context.Context, event TradeEvent) error {
	if featureflags.IsEnabled(FlagDisableCommissionCreation, engine.killSwitch) {
		log.Info().
			Str("section", "commission").
			Str("action", "on_trade_closed").
			Str("position_id", event.PositionID).
			Msg("Commission creation disabled, skipping trade")
		return nil
	}

	account, err := engine.repo.GetTradingAccountByAccountID(event.TradingAccount)
	if err == queries.ErrTradingAccountNotFound {
		log.Warn().
			Str("section", "commission").
			Str("action", "on_trade_closed").
			Str("trading_account", event.TradingAccount).
			Msg("Trade on unknown trading account, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	isDemo, err := engine.isDemoAccount(account)
	if err != nil {
		return err
	}
	if isDemo {
		return nil
	}

	client, err := engine.repo.GetUserByID(account.UserID)
	if err != nil {
		return err
	}
	if client.ParentIBID == nil {
		return nil
	}

	var walkErr error
	err = engine.Walk(client, func(ib *model.User, level int) bool {
		if !ib.IBStatus {
			// a non-IB direct parent ends the chain; higher up it only
			// skips that user
			return level != 1
		}
		if ib.CommissionProfileID == nil {
			return true
		}

		profile, err := engine.repo.GetCommissionProfile(*ib.CommissionProfileID)
		if err != nil {
			walkErr = err
			return false
		}
		// the walking IB's own profile gates on the client account's group
		if !profile.IsGroupApproved(account.GroupName) {
			return false
		}
		// profile too shallow for this depth, but IBs above may still
		// qualify at their own absolute level
		if level > profile.MaxLevels() {
			return true
		}

		amount, err := engine.commissionForLevel(profile, account.GroupName, level, event)
		if err != nil {
			walkErr = err
			return false
		}
		if amount.Sign() <= 0 {
			return true
		}

		if err := engine.payCommission(ctx, ib, level, amount, account, event); err != nil {
			walkErr = err
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	return walkErr
}

// isDemoAccount evaluates all three demo predicates. They overlap on
// purpose; a mislabelled account must not slip through on a single field.
func (engine *Engine) isDemoAccount(account *model.TradingAccount) (bool, error) {
	if account.Type == model.AccountTypeDemo {
		return true, nil
	}
	if account.HasDemoGroupName() {
		return true, nil
	}
	group, err := engine.repo.GetTradeGroup(account.GroupName)
	if err != nil {
		return false, err
	}
	if group != nil && group.IsDemo {
		return true, nil
	}
	return false, nil
}

// commissionForLevel computes what the walking IB earns at its absolute
// level, rounded half up to cents.
func (engine *Engine) commissionForLevel(profile *model.CommissionProfile, groupName string, level int, event TradeEvent) (*decimal.Big, error) {
	if profile.UsePercentageBased {
		pct := profile.PercentageForLevel(level)
		amount := conv.NewDecimalWithPrecision()
		amount.Mul(conv.Abs(event.TotalCommission), pct)
		amount.Quo(amount, hundred)
		return conv.RoundToCents(amount), nil
	}

	perLot := profile.UsdPerLotForLevel(level)
	override, err := engine.repo.GetProfileGroupOverride(profile.ID, groupName)
	if err != nil {
		return nil, err
	}
	if override != nil {
		perLot = override.AmountAt(level)
	}

	amount := conv.NewDecimalWithPrecision()
	amount.Mul(perLot, event.LotSize)
	return conv.RoundToCents(amount), nil
}

// payCommission writes the ledger row and, only when this call created it,
// pushes the credit to MT5. The credit is fire and forget: a gateway failure
// is logged and the ledger row stays, ops re-credits manually.
func (engine *Engine) payCommission(ctx context.Context, ib *model.User, level int, amount *decimal.Big, account *model.TradingAccount, event TradeEvent) error {
	row := model.NewCommissionTransaction(
		event.PositionID,
		account.AccountID,
		ib.ID,
		level,
		account.UserID,
		conv.Abs(event.TotalCommission),
		amount,
		event.LotSize,
		event.Profit,
		event.Symbol,
		event.PositionType,
		event.Direction,
		event.DealTicket,
		event.CloseTime,
		model.CommissionSource_MT5,
	)

	_, created, err := engine.repo.InsertOrGetCommission(row)
	if err != nil {
		return err
	}
	if !created {
		return engine.repo.BackfillCommission(model.CommissionKey{
			PositionID:           event.PositionID,
			ClientTradingAccount: account.AccountID,
			IBUserID:             ib.ID,
			IBLevel:              level,
		}, event.LotSize, event.Profit)
	}

	monitor.CommissionsCreated.WithLabelValues(model.CommissionSource_MT5.String()).Inc()

	ibAccount, err := engine.creditAccountFor(ib)
	if err != nil || ibAccount == nil {
		log.Error().Err(err).
			Str("section", "commission").
			Str("action", "pay").
			Uint64("ib_id", ib.ID).
			Str("position_id", event.PositionID).
			Msg("IB has no account to credit, ledger row kept")
		return nil
	}

	comment := fmt.Sprintf("IB Commission L%d pos %s %s", level, event.PositionID, amount.String())
	if err := engine.gateway.CreditIn(ctx, ibAccount.AccountID, amount, comment); err != nil {
		monitor.CommissionCreditFailures.WithLabelValues().Inc()
		log.Error().Err(err).
			Str("section", "commission").
			Str("action", "credit_in").
			Uint64("ib_id", ib.ID).
			Str("ib_account", ibAccount.AccountID).
			Str("position_id", event.PositionID).
			Int("level", level).
			Str("amount", amount.String()).
			Msg("MT5 credit failed, ledger row kept for manual correction")
		return nil
	}
	monitor.MT5Requests.WithLabelValues("credit_in", "ok").Inc()
	return nil
}

// creditAccountFor picks the account commissions are credited into: the
// IB's first non-demo trading account.
func (engine *Engine) creditAccountFor(ib *model.User) (*model.TradingAccount, error) {
	accounts, err := engine.repo.GetTradingAccountsByUser(ib.ID)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Type != model.AccountTypeDemo && !accounts[i].HasDemoGroupName() {
			return &accounts[i], nil
		}
	}
	return nil, nil
}
