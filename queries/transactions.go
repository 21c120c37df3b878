package queries

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/vtindex/backoffice_api/model"
)

var ErrTransactionNotFound = errors.New("TRANSACTION_NOT_FOUND")

// CreateTransaction inserts a pending transaction
func (repo *Repo) CreateTransaction(tx *model.Transaction) error {
	return repo.Conn.Table("transactions").Create(tx).Error
}

// GetTransaction returns one transaction by id
func (repo *Repo) GetTransaction(id string) (*model.Transaction, error) {
	tx := model.Transaction{}
	db := repo.ConnReader.Table("transactions").First(&tx, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	return &tx, db.Error
}

// GetTransactionForUpdate loads a transaction inside the given db
// transaction with a row lock, serialising concurrent approvals.
func (repo *Repo) GetTransactionForUpdate(db *gorm.DB, id string) (*model.Transaction, error) {
	tx := model.Transaction{}
	q := db.Table("transactions").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, "id = ?", id)
	if errors.Is(q.Error, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	return &tx, q.Error
}

// ResolveTransaction moves a pending transaction into a terminal state
// inside the caller's db transaction.
func (repo *Repo) ResolveTransaction(db *gorm.DB, tx *model.Transaction, status model.TransactionStatus, adminID uint64, comment string) error {
	now := time.Now()
	tx.Status = status
	tx.ApprovedByID = &adminID
	tx.ApprovedAt = &now
	tx.AdminComment = comment
	tx.UpdatedAt = now
	return db.Table("transactions").
		Where("id = ? AND status = ?", tx.ID, model.TransactionStatus_Pending).
		Updates(map[string]interface{}{
			"status":         status,
			"approved_by_id": adminID,
			"approved_at":    now,
			"admin_comment":  comment,
			"updated_at":     now,
		}).Error
}

// GetTransactions returns a filtered page of transactions joined with the
// owning user for admin listings.
func (repo *Repo) GetTransactions(userID uint64, txType model.TransactionType, status model.TransactionStatus, from, to *time.Time, limit, page int) (*model.TransactionList, error) {
	transactions := make([]model.TransactionWithUser, 0, limit)
	var rowCount int64

	q := repo.ConnReaderAdmin.Table("transactions AS t")
	if userID != 0 {
		q = q.Where("t.user_id = ?", userID)
	}
	if txType != "" {
		q = q.Where("t.transaction_type = ?", txType)
	}
	if status != "" {
		q = q.Where("t.status = ?", status)
	}
	if from != nil {
		q = q.Where("t.created_at >= ?", from)
	}
	if to != nil {
		q = q.Where("t.created_at <= ?", to)
	}
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Select("t.*, u.email, u.first_name, u.last_name").
		Joins("LEFT JOIN users AS u ON u.id = t.user_id").
		Order("t.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&transactions)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.TransactionList{
		Transactions: transactions,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// GetUserTransactions returns a page of the user's own transactions
func (repo *Repo) GetUserTransactions(userID uint64, limit, page int) (*model.TransactionList, error) {
	transactions := make([]model.TransactionWithUser, 0, limit)
	var rowCount int64

	q := repo.ConnReader.Table("transactions AS t").Where("t.user_id = ?", userID)
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Select("t.*").
		Order("t.created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&transactions)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.TransactionList{
		Transactions: transactions,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// CountPendingTransactions returns the pending queue size per type for the
// admin dashboard.
func (repo *Repo) CountPendingTransactions() (map[string]int64, error) {
	rows, err := repo.ConnReaderAdmin.Table("transactions").
		Select("transaction_type, COUNT(*)").
		Where("status = ?", model.TransactionStatus_Pending).
		Group("transaction_type").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var txType string
		var count int64
		if err := rows.Scan(&txType, &count); err != nil {
			return nil, err
		}
		counts[txType] = count
	}
	return counts, rows.Err()
}
