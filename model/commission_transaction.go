package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
)

// CommissionSource marks how a ledger row entered the system
type CommissionSource string

const (
	CommissionSource_MT5      CommissionSource = "mt5"
	CommissionSource_Backfill CommissionSource = "backfill"
)

func (s CommissionSource) String() string {
	return string(s)
}

// CommissionTransaction is the append-only commission ledger. One row per
// (position, client account, ib, level); the composite unique index makes
// trade-event replays idempotent.
type CommissionTransaction struct {
	ID uint64 `sql:"type:bigint" gorm:"primary_key" json:"id"`

	PositionID           string `gorm:"column:position_id" json:"position_id"`
	ClientTradingAccount string `gorm:"column:client_trading_account" json:"client_trading_account"`
	IBUserID             uint64 `gorm:"column:ib_user_id" json:"ib_user_id"`
	IBLevel              int    `gorm:"column:ib_level" json:"ib_level"`

	ClientUserID    uint64            `gorm:"column:client_user_id" json:"client_user_id"`
	TotalCommission *postgres.Decimal `sql:"type:decimal(18,2)" json:"total_commission"`
	CommissionToIB  *postgres.Decimal `gorm:"column:commission_to_ib" sql:"type:decimal(18,2)" json:"commission_to_ib"`
	Symbol          string            `json:"symbol"`
	PositionType    string            `gorm:"column:position_type" json:"position_type"`
	Direction       string            `json:"direction"`
	LotSize         *postgres.Decimal `gorm:"column:lot_size" sql:"type:decimal(12,2)" json:"lot_size"`
	Profit          *postgres.Decimal `sql:"type:decimal(18,2)" json:"profit"`
	MT5CloseTime    *time.Time        `gorm:"column:mt5_close_time" json:"mt5_close_time"`
	DealTicket      string            `gorm:"column:deal_ticket" json:"deal_ticket"`
	Source          CommissionSource  `sql:"type:commission_source_t" json:"source"`

	CreatedAt time.Time `json:"created_at"`
}

// NewCommissionTransaction creates a ledger row for one IB at one level
func NewCommissionTransaction(
	positionID, clientAccount string,
	ibUserID uint64,
	level int,
	clientUserID uint64,
	totalCommission, commissionToIB, lotSize, profit *decimal.Big,
	symbol, positionType, direction, dealTicket string,
	closeTime *time.Time,
	source CommissionSource,
) *CommissionTransaction {
	return &CommissionTransaction{
		PositionID:           positionID,
		ClientTradingAccount: clientAccount,
		IBUserID:             ibUserID,
		IBLevel:              level,
		ClientUserID:         clientUserID,
		TotalCommission:      &postgres.Decimal{V: totalCommission},
		CommissionToIB:       &postgres.Decimal{V: commissionToIB},
		Symbol:               symbol,
		PositionType:         positionType,
		Direction:            direction,
		LotSize:              &postgres.Decimal{V: lotSize},
		Profit:               &postgres.Decimal{V: profit},
		MT5CloseTime:         closeTime,
		DealTicket:           dealTicket,
		Source:               source,
		CreatedAt:            time.Now(),
	}
}

// CommissionKey identifies one logical ledger row
type CommissionKey struct {
	PositionID           string
	ClientTradingAccount string
	IBUserID             uint64
	IBLevel              int
}

// CommissionTransactionWithUser carries the client email for admin listings
type CommissionTransactionWithUser struct {
	CommissionTransaction
	ClientEmail string `gorm:"column:client_email" json:"client_email"`
	IBEmail     string `gorm:"column:ib_email" json:"ib_email"`
}

// CommissionTransactionList structure
type CommissionTransactionList struct {
	Commissions []CommissionTransactionWithUser `json:"commissions"`
	Meta        PagingMeta                      `json:"meta"`
}
