package queries

import (
	"github.com/ericlagergren/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/vtindex/backoffice_api/model"
)

// InsertOrGetCommission inserts a ledger row or, when the composite key
// already exists, loads the existing row. The second return value reports
// whether this call created the row: only a fresh insert may push the
// credit to MT5.
func (repo *Repo) InsertOrGetCommission(tx *model.CommissionTransaction) (*model.CommissionTransaction, bool, error) {
	db := repo.Conn.Table("commission_transactions").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "position_id"},
				{Name: "client_trading_account"},
				{Name: "ib_user_id"},
				{Name: "ib_level"},
			},
			DoNothing: true,
		}).
		Create(tx)
	if db.Error != nil {
		return nil, false, db.Error
	}
	if db.RowsAffected > 0 {
		return tx, true, nil
	}

	existing := model.CommissionTransaction{}
	db = repo.Conn.Table("commission_transactions").First(&existing,
		"position_id = ? AND client_trading_account = ? AND ib_user_id = ? AND ib_level = ?",
		tx.PositionID, tx.ClientTradingAccount, tx.IBUserID, tx.IBLevel)
	if db.Error != nil {
		return nil, false, db.Error
	}
	return &existing, false, nil
}

// BackfillCommission fills lot size and profit on an existing ledger row.
// Only null columns are written; a row that already carries both values,
// including a zero profit on a breakeven trade, stays untouched and keeps
// its source.
func (repo *Repo) BackfillCommission(key model.CommissionKey, lotSize, profit *decimal.Big) error {
	return repo.Conn.Exec(
		`UPDATE commission_transactions
		 SET lot_size = COALESCE(lot_size, ?),
		     profit = COALESCE(profit, ?),
		     source = ?
		 WHERE position_id = ? AND client_trading_account = ? AND ib_user_id = ? AND ib_level = ?
		   AND (lot_size IS NULL OR profit IS NULL)`,
		lotSize.String(), profit.String(), model.CommissionSource_Backfill,
		key.PositionID, key.ClientTradingAccount, key.IBUserID, key.IBLevel,
	).Error
}

// GetCommissionsByIB returns a page of ledger rows for one IB
func (repo *Repo) GetCommissionsByIB(ibUserID uint64, limit, page int) (*model.CommissionTransactionList, error) {
	q := repo.ConnReader.Table("commission_transactions AS ct").
		Where("ct.ib_user_id = ?", ibUserID)
	return repo.listCommissions(q, limit, page)
}

// GetCommissions returns a filtered page of ledger rows for the admin view
func (repo *Repo) GetCommissions(ibUserID, clientUserID uint64, positionID string, limit, page int) (*model.CommissionTransactionList, error) {
	q := repo.ConnReaderAdmin.Table("commission_transactions AS ct")
	if ibUserID != 0 {
		q = q.Where("ct.ib_user_id = ?", ibUserID)
	}
	if clientUserID != 0 {
		q = q.Where("ct.client_user_id = ?", clientUserID)
	}
	if positionID != "" {
		q = q.Where("ct.position_id = ?", positionID)
	}
	return repo.listCommissions(q, limit, page)
}

func (repo *Repo) listCommissions(q *gorm.DB, limit, page int) (*model.CommissionTransactionList, error) {
	commissions := make([]model.CommissionTransactionWithUser, 0, limit)
	var rowCount int64

	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Select("ct.*, cu.email AS client_email, iu.email AS ib_email").
		Joins("LEFT JOIN users AS cu ON cu.id = ct.client_user_id").
		Joins("LEFT JOIN users AS iu ON iu.id = ct.ib_user_id").
		Order("ct.id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&commissions)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.CommissionTransactionList{
		Commissions: commissions,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

