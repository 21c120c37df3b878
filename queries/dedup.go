package queries

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/vtindex/backoffice_api/model"
)

// MarkMT5Sent records a money movement pushed to MT5. Returns false when the
// (transaction, leg) pair was already recorded, so a retried approval can
// skip the send.
func (repo *Repo) MarkMT5Sent(db *gorm.DB, transactionID, leg string) (bool, error) {
	record := model.MT5SendDedup{
		TransactionID: transactionID,
		Leg:           leg,
		SentAt:        time.Now(),
	}
	q := db.Table("mt5_send_dedup").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "leg"}},
			DoNothing: true,
		}).
		Create(&record)
	if q.Error != nil {
		return false, q.Error
	}
	return q.RowsAffected > 0, nil
}

// WasMT5Sent checks for an existing dedup record
func (repo *Repo) WasMT5Sent(transactionID, leg string) (bool, error) {
	var count int64
	db := repo.ConnReader.Table("mt5_send_dedup").
		Where("transaction_id = ? AND leg = ?", transactionID, leg).
		Count(&count)
	return count > 0, db.Error
}

// PruneMT5SendDedup drops dedup records older than the retention window.
// Terminal transactions are never re-approved, so old records only take
// space.
func (repo *Repo) PruneMT5SendDedup(olderThan time.Duration) (int64, error) {
	db := repo.Conn.Table("mt5_send_dedup").
		Where("sent_at < ?", time.Now().Add(-olderThan)).
		Delete(&model.MT5SendDedup{})
	return db.RowsAffected, db.Error
}
