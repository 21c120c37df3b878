package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/model"
)

var ErrUserNotFound = errors.New("USER_NOT_FOUND")

// GetUserByID returns a single user by id
func (repo *Repo) GetUserByID(id uint64) (*model.User, error) {
	user := model.User{}
	db := repo.ConnReader.First(&user, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, db.Error
}

// GetUserByEmail returns a single user by email
func (repo *Repo) GetUserByEmail(email string) (*model.User, error) {
	user := model.User{}
	db := repo.ConnReader.First(&user, "email = ?", email)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, db.Error
}

// GetUserByReferralCode resolves the code a new registration arrived with
func (repo *Repo) GetUserByReferralCode(code string) (*model.User, error) {
	user := model.User{}
	db := repo.ConnReader.First(&user, "referral_code = ?", code)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, db.Error
}

// CreateUser inserts a new user
func (repo *Repo) CreateUser(user *model.User) error {
	return repo.Conn.Table("users").Create(user).Error
}

// UpdateUser saves user changes through the writer
func (repo *Repo) UpdateUser(user *model.User) error {
	return repo.Conn.Table("users").Save(user).Error
}

// GetUsers returns a filtered page of users for the admin listing
func (repo *Repo) GetUsers(role model.RoleAlias, status, query string, limit, page int) (*model.UserList, error) {
	users := make([]model.User, 0, limit)
	var rowCount int64

	q := repo.ConnReaderAdmin.Table("users")
	if role != "" {
		q = q.Where("role_alias = ?", role)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern)
	}
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&users)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.UserList{
		Users: users,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// GetReferredUsers returns the direct referrals of one IB
func (repo *Repo) GetReferredUsers(ibUserID uint64, limit, page int) (*model.UserList, error) {
	users := make([]model.User, 0, limit)
	var rowCount int64

	q := repo.ConnReader.Table("users").Where("parent_ib_id = ?", ibUserID)
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&users)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.UserList{
		Users: users,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// LinkReferralsForIB attaches users who registered with the IB's referral
// code before the IB promotion. Only users without a parent are touched,
// so re-running the pass is a no-op.
func (repo *Repo) LinkReferralsForIB(ib *model.User) (int64, error) {
	db := repo.Conn.Table("users").
		Where("referral_code_used = ? AND parent_ib_id IS NULL AND id <> ?", ib.ReferralCode, ib.ID).
		Update("parent_ib_id", ib.ID)
	return db.RowsAffected, db.Error
}

// GetTotalEarnings sums the commission ledger for one IB, excluding rows
// earned on demo accounts.
func (repo *Repo) GetTotalEarnings(ibUserID uint64) (string, error) {
	var total string
	row := repo.ConnReader.Table("commission_transactions AS ct").
		Select("COALESCE(SUM(ct.commission_to_ib), 0)").
		Joins("LEFT JOIN trading_accounts AS ta ON ta.account_id = ct.client_trading_account").
		Joins("LEFT JOIN trade_groups AS tg ON tg.group_name = ta.group_name").
		Where("ct.ib_user_id = ?", ibUserID).
		Where("(ta.account_type IS NULL OR ta.account_type <> ?)", model.AccountTypeDemo).
		Where("(tg.is_demo IS NULL OR tg.is_demo = false)").
		Where("(ta.group_name IS NULL OR LOWER(ta.group_name) NOT LIKE '%demo%')").
		Row()
	err := row.Scan(&total)
	return total, err
}

// GetTotalCommissionWithdrawals sums the approved commission withdrawals
// of one IB.
func (repo *Repo) GetTotalCommissionWithdrawals(ibUserID uint64) (string, error) {
	var total string
	row := repo.ConnReader.Table("transactions").
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", ibUserID).
		Where("transaction_type = ?", model.TransactionType_CommissionWithdrawal).
		Where("status = ?", model.TransactionStatus_Approved).
		Row()
	err := row.Scan(&total)
	return total, err
}
