package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/conv"
	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/monitor"
	"gitlab.com/vtindex/backoffice_api/queries"
	"gitlab.com/vtindex/backoffice_api/service/audit"
)

// CreateTransaction validates and persists a pending transaction for the
// user. Nothing is sent to MT5 until an admin approves it.
func (service *Service) CreateTransaction(userID uint64, request *model.CreateTransactionRequest) (*model.Transaction, error) {
	user, err := service.repo.GetUserByID(userID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}

	tx, err := model.NewTransaction(userID, request.Type, request.Amount, request.TradingAccount)
	if err != nil {
		return nil, err
	}
	tx.FromAccount = request.FromAccount
	tx.ToAccount = request.ToAccount
	tx.PayoutTo = request.PayoutTo
	tx.ExternalAccount = request.ExternalAccount

	if err := tx.Validate(); err != nil {
		return nil, httputils.NewRequestError(http.StatusBadRequest, err.Error(), err)
	}
	if tx.Type.IsWithdrawal() && !user.Verified() {
		return nil, httputils.NewRequestError(http.StatusForbidden, "KYC verification required for withdrawals", nil)
	}
	if tx.Type == model.TransactionType_CommissionWithdrawal && !user.IsIB() {
		return nil, httputils.NewRequestError(http.StatusForbidden, "Commission withdrawals are limited to introducing brokers", nil)
	}

	if err := service.checkAccountOwnership(user.ID, tx); err != nil {
		return nil, err
	}

	if err := service.repo.CreateTransaction(tx); err != nil {
		return nil, err
	}

	service.audit.Record(audit.Event{
		UserID:   userID,
		Activity: fmt.Sprintf("Created %s transaction %s", tx.Type, tx.ID),
		Type:     model.ActivityType_Create,
		Category: model.ActivityCategory_Client,
	})
	return tx, nil
}

func (service *Service) checkAccountOwnership(userID uint64, tx *model.Transaction) error {
	accounts := []string{}
	switch tx.Type {
	case model.TransactionType_InternalTransfer:
		accounts = append(accounts, tx.FromAccount, tx.ToAccount)
	case model.TransactionType_CommissionWithdrawal:
		// the target account may be picked by the admin at approval time
		if tx.TradingAccount != "" {
			accounts = append(accounts, tx.TradingAccount)
		}
	default:
		if tx.TradingAccount == "" {
			return httputils.NewRequestError(http.StatusBadRequest, "Trading account is required", nil)
		}
		accounts = append(accounts, tx.TradingAccount)
	}

	for _, account := range accounts {
		owned, err := service.repo.UserOwnsTradingAccount(userID, account)
		if err != nil {
			return err
		}
		if !owned {
			return httputils.NewRequestError(http.StatusForbidden, "Trading account does not belong to the user", nil)
		}
	}
	return nil
}

// ApproveTransaction runs the approval pipeline: lock the row, check
// preconditions, perform the MT5 side-effect and only then persist the
// terminal status. An MT5 failure leaves the transaction pending.
func (service *Service) ApproveTransaction(ctx context.Context, adminID uint64, txID, note string) (*model.Transaction, error) {
	db := service.repo.Conn.Begin()
	if db.Error != nil {
		return nil, db.Error
	}

	tx, err := service.repo.GetTransactionForUpdate(db, txID)
	if err != nil {
		db.Rollback()
		if err == queries.ErrTransactionNotFound {
			return nil, httputils.NewRequestError(http.StatusNotFound, "Transaction not found", err)
		}
		return nil, err
	}
	if tx.Status != model.TransactionStatus_Pending {
		db.Rollback()
		return nil, httputils.NewRequestError(http.StatusConflict, "Transaction already resolved", model.ErrTransactionNotPending)
	}

	user, err := service.repo.GetUserByID(tx.UserID)
	if err != nil {
		db.Rollback()
		return nil, err
	}

	if tx.Type.IsWithdrawal() && !user.Verified() {
		db.Rollback()
		service.audit.Record(audit.Event{
			UserID:   adminID,
			Activity: fmt.Sprintf("Blocked withdrawal %s: user %d is not KYC verified", tx.ID, user.ID),
			Type:     model.ActivityType_Update,
			Category: model.ActivityCategory_Management,
		})
		return nil, httputils.NewRequestError(http.StatusForbidden, "User is not KYC verified", nil)
	}

	if tx.Type == model.TransactionType_CommissionWithdrawal {
		if err := service.checkCommissionBalance(user.ID, tx.Amount.V); err != nil {
			db.Rollback()
			return nil, err
		}
	}

	if err := service.performMT5SideEffect(ctx, tx); err != nil {
		db.Rollback()
		return nil, err
	}

	if err := service.repo.ResolveTransaction(db, tx, model.TransactionStatus_Approved, adminID, note); err != nil {
		db.Rollback()
		return nil, err
	}
	if err := db.Commit().Error; err != nil {
		return nil, err
	}

	monitor.TransactionsResolved.WithLabelValues(tx.Type.String(), tx.Status.String()).Inc()
	service.audit.Record(audit.Event{
		UserID:   adminID,
		Activity: fmt.Sprintf("Approved %s transaction %s for user %d", tx.Type, tx.ID, tx.UserID),
		Type:     model.ActivityType_Update,
		Category: model.ActivityCategory_Management,
	})
	service.notifyTransactionResolved(user, tx)
	return tx, nil
}

// RejectTransaction moves a pending transaction to rejected. No MT5 call.
func (service *Service) RejectTransaction(adminID uint64, txID, note string) (*model.Transaction, error) {
	db := service.repo.Conn.Begin()
	if db.Error != nil {
		return nil, db.Error
	}

	tx, err := service.repo.GetTransactionForUpdate(db, txID)
	if err != nil {
		db.Rollback()
		if err == queries.ErrTransactionNotFound {
			return nil, httputils.NewRequestError(http.StatusNotFound, "Transaction not found", err)
		}
		return nil, err
	}
	if tx.Status != model.TransactionStatus_Pending {
		db.Rollback()
		return nil, httputils.NewRequestError(http.StatusConflict, "Transaction already resolved", model.ErrTransactionNotPending)
	}

	if err := service.repo.ResolveTransaction(db, tx, model.TransactionStatus_Rejected, adminID, note); err != nil {
		db.Rollback()
		return nil, err
	}
	if err := db.Commit().Error; err != nil {
		return nil, err
	}

	monitor.TransactionsResolved.WithLabelValues(tx.Type.String(), tx.Status.String()).Inc()
	service.audit.Record(audit.Event{
		UserID:   adminID,
		Activity: fmt.Sprintf("Rejected %s transaction %s for user %d", tx.Type, tx.ID, tx.UserID),
		Type:     model.ActivityType_Update,
		Category: model.ActivityCategory_Management,
	})
	if user, err := service.repo.GetUserByID(tx.UserID); err == nil {
		service.notifyTransactionResolved(user, tx)
	}
	return tx, nil
}

func (service *Service) checkCommissionBalance(userID uint64, amount *decimal.Big) error {
	earningsStr, err := service.repo.GetTotalEarnings(userID)
	if err != nil {
		return err
	}
	withdrawalsStr, err := service.repo.GetTotalCommissionWithdrawals(userID)
	if err != nil {
		return err
	}

	earnings, ok := new(decimal.Big).SetString(earningsStr)
	if !ok {
		return fmt.Errorf("bad earnings total: %q", earningsStr)
	}
	withdrawals, ok := new(decimal.Big).SetString(withdrawalsStr)
	if !ok {
		return fmt.Errorf("bad withdrawals total: %q", withdrawalsStr)
	}

	available := conv.NewDecimalWithPrecision()
	available.Sub(earnings, withdrawals)
	if amount.Cmp(available) > 0 {
		return httputils.NewRequestError(http.StatusBadRequest, "Amount exceeds available commission balance", nil)
	}
	return nil
}

// performMT5SideEffect pushes the money movement to MT5. Every logical send
// carries a dedup key so a crashed or retried approval never double-sends.
func (service *Service) performMT5SideEffect(ctx context.Context, tx *model.Transaction) error {
	amount := tx.Amount.V

	switch tx.Type {
	case model.TransactionType_DepositTrading:
		return service.sendOnce(ctx, tx.ID, model.DedupLegSingle, "deposit", tx.TradingAccount, amount)
	case model.TransactionType_WithdrawTrading:
		return service.sendOnce(ctx, tx.ID, model.DedupLegSingle, "withdraw", tx.TradingAccount, amount)
	case model.TransactionType_CreditIn:
		return service.sendOnce(ctx, tx.ID, model.DedupLegSingle, "credit_in", tx.TradingAccount, amount)
	case model.TransactionType_CreditOut:
		return service.sendOnce(ctx, tx.ID, model.DedupLegSingle, "credit_out", tx.TradingAccount, amount)
	case model.TransactionType_CommissionWithdrawal:
		if tx.TradingAccount == "" {
			return httputils.NewRequestError(http.StatusBadRequest, "Target trading account is required", model.ErrTransactionMissingAccount)
		}
		// commission moves into a trading account
		return service.sendOnce(ctx, tx.ID, model.DedupLegSingle, "deposit", tx.TradingAccount, amount)
	case model.TransactionType_InternalTransfer:
		return service.performTransfer(ctx, tx)
	default:
		return httputils.NewRequestError(http.StatusBadRequest, "Unknown transaction type", model.ErrTransactionBadType)
	}
}

// performTransfer runs the two transfer legs under distinct dedup keys. The
// legs are not atomic on MT5: a credit failure after a successful debit
// still approves the transaction and raises a compensation alert for manual
// re-credit, the credit is never silently retried.
func (service *Service) performTransfer(ctx context.Context, tx *model.Transaction) error {
	amount := tx.Amount.V

	if err := service.sendOnce(ctx, tx.ID, model.DedupLegTransferDebit, "withdraw", tx.FromAccount, amount); err != nil {
		return err
	}

	if err := service.sendOnce(ctx, tx.ID, model.DedupLegTransferCredit, "deposit", tx.ToAccount, amount); err != nil {
		log.Error().
			Str("section", "transactions").
			Str("action", "transfer").
			Str("transaction_id", tx.ID).
			Str("from_account", tx.FromAccount).
			Str("to_account", tx.ToAccount).
			Str("amount", amount.String()).
			Msg("Transfer credit failed after debit, manual re-credit required")
		service.audit.Record(audit.Event{
			UserID:   tx.UserID,
			Activity: fmt.Sprintf("Transfer compensation required for transaction %s: credit of %s to %s failed after debit", tx.ID, amount.String(), tx.ToAccount),
			Type:     model.ActivityType_Update,
			Category: model.ActivityCategory_Management,
		})
		service.sendCompensationAlert(tx)
	}
	return nil
}

// sendOnce performs one MT5 money movement guarded by a dedup key
func (service *Service) sendOnce(ctx context.Context, txID, leg, operation, account string, amount *decimal.Big) error {
	sent, err := service.repo.WasMT5Sent(txID, leg)
	if err != nil {
		return err
	}
	if sent {
		log.Info().
			Str("section", "transactions").
			Str("action", "mt5_send").
			Str("transaction_id", txID).
			Str("leg", leg).
			Msg("MT5 send already recorded, skipping")
		return nil
	}

	comment := fmt.Sprintf("Backoffice tx %s", txID)
	switch operation {
	case "deposit":
		err = service.gateway.Deposit(ctx, account, amount, comment)
	case "withdraw":
		err = service.gateway.Withdraw(ctx, account, amount, comment)
	case "credit_in":
		err = service.gateway.CreditIn(ctx, account, amount, comment)
	case "credit_out":
		err = service.gateway.CreditOut(ctx, account, amount, comment)
	}
	if err != nil {
		monitor.MT5Requests.WithLabelValues(operation, "error").Inc()
		log.Error().Err(err).
			Str("section", "transactions").
			Str("action", "mt5_send").
			Str("transaction_id", txID).
			Str("leg", leg).
			Str("operation", operation).
			Str("account", account).
			Str("amount", amount.String()).
			Msg("MT5 operation failed")
		return httputils.NewRequestError(http.StatusInternalServerError, "MT5 operation failed", err)
	}
	monitor.MT5Requests.WithLabelValues(operation, "ok").Inc()

	if _, err := service.repo.MarkMT5Sent(service.repo.Conn, txID, leg); err != nil {
		// the movement happened; a failed dedup record only risks a skipped
		// retry being sent again after manual review
		log.Error().Err(err).
			Str("section", "transactions").
			Str("action", "mt5_send").
			Str("transaction_id", txID).
			Str("leg", leg).
			Msg("Unable to record MT5 send")
	}
	return nil
}
