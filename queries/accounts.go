package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/model"
)

var ErrTradingAccountNotFound = errors.New("TRADING_ACCOUNT_NOT_FOUND")

// GetTradingAccountByAccountID resolves an MT5 login to its back-office row
func (repo *Repo) GetTradingAccountByAccountID(accountID string) (*model.TradingAccount, error) {
	account := model.TradingAccount{}
	db := repo.ConnReader.First(&account, "account_id = ?", accountID)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrTradingAccountNotFound
	}
	return &account, db.Error
}

// GetTradingAccountsByUser returns all accounts belonging to a user
func (repo *Repo) GetTradingAccountsByUser(userID uint64) ([]model.TradingAccount, error) {
	accounts := []model.TradingAccount{}
	db := repo.ConnReader.Where("user_id = ?", userID).Order("id ASC").Find(&accounts)
	return accounts, db.Error
}

// UserOwnsTradingAccount checks the account belongs to the given user
func (repo *Repo) UserOwnsTradingAccount(userID uint64, accountID string) (bool, error) {
	var count int64
	db := repo.ConnReader.Table("trading_accounts").
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Count(&count)
	return count > 0, db.Error
}

// CreateTradingAccount inserts a new trading account row
func (repo *Repo) CreateTradingAccount(account *model.TradingAccount) error {
	return repo.Conn.Table("trading_accounts").Create(account).Error
}

// UpdateTradingAccount saves account changes
func (repo *Repo) UpdateTradingAccount(account *model.TradingAccount) error {
	return repo.Conn.Table("trading_accounts").Save(account).Error
}

// GetTradeGroup returns the configured classification of an MT5 group string,
// nil when the group was never configured.
func (repo *Repo) GetTradeGroup(groupName string) (*model.TradeGroup, error) {
	group := model.TradeGroup{}
	db := repo.ConnReader.First(&group, "group_name = ?", groupName)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &group, db.Error
}

// GetTradingAccounts returns a page of accounts for admin listings
func (repo *Repo) GetTradingAccounts(userID uint64, limit, page int) (*model.TradingAccountList, error) {
	accounts := make([]model.TradingAccount, 0, limit)
	var rowCount int64

	q := repo.ConnReaderAdmin.Table("trading_accounts")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&accounts)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.TradingAccountList{
		Accounts: accounts,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}
