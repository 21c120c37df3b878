package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericlagergren/decimal/sql/postgres"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/service/audit"
)

// GetTradingAccounts pages through trading accounts, optionally filtered to
// one user. Admin listings read through the admin replica.
func (service *Service) GetTradingAccounts(userID uint64, limit, page int) (*model.TradingAccountList, error) {
	return service.repo.GetTradingAccounts(userID, limit, page)
}

// GetOwnTradingAccounts returns every account linked to the signed in user
func (service *Service) GetOwnTradingAccounts(userID uint64) ([]model.TradingAccount, error) {
	return service.repo.GetTradingAccountsByUser(userID)
}

// CreateTradingAccount links an MT5 login to a back-office user. The login
// must already exist on the trade server; the row here only carries the
// grouping and snapshot columns.
func (service *Service) CreateTradingAccount(staffID, userID uint64, accountID string, accountType model.AccountType, groupName string) (*model.TradingAccount, error) {
	if accountID == "" {
		return nil, httputils.NewRequestError(http.StatusBadRequest, "Account id is required", nil)
	}
	if !accountType.IsValid() {
		return nil, httputils.NewRequestError(http.StatusBadRequest, "Invalid account type", nil)
	}
	if _, err := service.repo.GetUserByID(userID); err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}
	if existing, err := service.repo.GetTradingAccountByAccountID(accountID); err == nil && existing != nil {
		return nil, httputils.NewRequestError(http.StatusConflict, "Account is already linked", nil)
	}

	account := &model.TradingAccount{
		AccountID: accountID,
		UserID:    userID,
		Type:      accountType,
		GroupName: groupName,
	}
	if err := service.repo.CreateTradingAccount(account); err != nil {
		return nil, err
	}

	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Linked trading account %s to user %d", accountID, userID),
		Type:     model.ActivityType_Create,
		Category: model.ActivityCategory_Management,
	})
	return account, nil
}

// RefreshAccountSnapshot pulls the current balance from MT5 into the list
// view snapshot. The snapshot is cosmetic; approvals never read it.
func (service *Service) RefreshAccountSnapshot(ctx context.Context, userID uint64, accountID string) (*model.TradingAccount, error) {
	owns, err := service.repo.UserOwnsTradingAccount(userID, accountID)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, httputils.NewRequestError(http.StatusNotFound, "Trading account not found", nil)
	}
	account, err := service.repo.GetTradingAccountByAccountID(accountID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "Trading account not found", err)
	}

	balance, err := service.gateway.GetBalance(ctx, accountID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusBadGateway, "Unable to read balance from MT5", err)
	}
	account.Balance = &postgres.Decimal{V: balance}
	if err := service.repo.UpdateTradingAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}
