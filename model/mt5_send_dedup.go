package model

import "time"

// MT5SendDedup records a money movement already pushed to MT5 so a retried
// approval never sends the same leg twice. Unique on (transaction_id, leg).
type MT5SendDedup struct {
	ID            uint64    `sql:"type:bigint" gorm:"primary_key" json:"id"`
	TransactionID string    `gorm:"column:transaction_id" json:"transaction_id"`
	Leg           string    `json:"leg"`
	SentAt        time.Time `gorm:"column:sent_at" json:"sent_at"`
}

// Dedup leg names. Single-account movements use LegSingle; internal
// transfers record each side under its own key.
const (
	DedupLegSingle         = "single"
	DedupLegTransferDebit  = "transfer-debit"
	DedupLegTransferCredit = "transfer-credit"
)
