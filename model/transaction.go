package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	gouuid "github.com/nu7hatch/gouuid"
)

var (
	ErrTransactionBadAmount      = errors.New("TRANSACTION_BAD_AMOUNT")
	ErrTransactionBadType        = errors.New("TRANSACTION_BAD_TYPE")
	ErrTransactionBadTransfer    = errors.New("TRANSACTION_BAD_TRANSFER")
	ErrTransactionNotPending     = errors.New("TRANSACTION_NOT_PENDING")
	ErrTransactionMissingAccount = errors.New("TRANSACTION_MISSING_ACCOUNT")
)

// TransactionType is the user-visible money movement kind
type TransactionType string

const (
	TransactionType_DepositTrading       TransactionType = "deposit_trading"
	TransactionType_WithdrawTrading      TransactionType = "withdraw_trading"
	TransactionType_CreditIn             TransactionType = "credit_in"
	TransactionType_CreditOut            TransactionType = "credit_out"
	TransactionType_CommissionWithdrawal TransactionType = "commission_withdrawal"
	TransactionType_InternalTransfer     TransactionType = "internal_transfer"
)

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionType_DepositTrading,
		TransactionType_WithdrawTrading,
		TransactionType_CreditIn,
		TransactionType_CreditOut,
		TransactionType_CommissionWithdrawal,
		TransactionType_InternalTransfer:
		return true
	default:
		return false
	}
}

// IsWithdrawal is true for the types gated on KYC verification
func (t TransactionType) IsWithdrawal() bool {
	return t == TransactionType_WithdrawTrading || t == TransactionType_CommissionWithdrawal
}

// TransactionStatus - pending transactions resolve terminally to approved or
// rejected; terminal states are immutable.
type TransactionStatus string

const (
	TransactionStatus_Pending  TransactionStatus = "pending"
	TransactionStatus_Approved TransactionStatus = "approved"
	TransactionStatus_Rejected TransactionStatus = "rejected"
)

func (s TransactionStatus) String() string {
	return string(s)
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatus_Pending,
		TransactionStatus_Approved,
		TransactionStatus_Rejected:
		return true
	default:
		return false
	}
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatus_Approved || s == TransactionStatus_Rejected
}

// PayoutMethod for withdrawals leaving the brokerage
type PayoutMethod string

const (
	PayoutMethod_Bank   PayoutMethod = "bank"
	PayoutMethod_Crypto PayoutMethod = "crypto"
)

func (p PayoutMethod) IsValid() bool {
	return p == PayoutMethod_Bank || p == PayoutMethod_Crypto
}

// Transaction structure
type Transaction struct {
	ID     string            `sql:"type:uuid" gorm:"PRIMARY_KEY" json:"id"`
	UserID uint64            `gorm:"column:user_id" json:"user_id"`
	Type   TransactionType   `gorm:"column:transaction_type" sql:"not null;type:transaction_type_t" json:"transaction_type"`
	Amount *postgres.Decimal `sql:"type:decimal(18,2)" json:"amount"`
	Status TransactionStatus `sql:"not null;type:transaction_status_t;default:'pending'" json:"status"`

	// MT5 login the movement applies to; empty for commission withdrawals
	// until the admin picks the target account.
	TradingAccount string `gorm:"column:trading_account" json:"trading_account"`
	// internal_transfer only
	FromAccount string `gorm:"column:from_account" json:"from_account"`
	ToAccount   string `gorm:"column:to_account" json:"to_account"`

	ApprovedByID *uint64    `gorm:"column:approved_by_id" json:"approved_by_id"`
	ApprovedAt   *time.Time `gorm:"column:approved_at" json:"approved_at"`
	AdminComment string     `gorm:"column:admin_comment" json:"admin_comment"`

	Document        string       `json:"document"`
	PayoutTo        PayoutMethod `gorm:"column:payout_to" json:"payout_to"`
	ExternalAccount string       `gorm:"column:external_account" json:"external_account"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTransaction creates a pending transaction
func NewTransaction(userID uint64, txType TransactionType, amount *decimal.Big, tradingAccount string) (*Transaction, error) {
	id, err := gouuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:             id.String(),
		UserID:         userID,
		Type:           txType,
		Amount:         &postgres.Decimal{V: amount},
		Status:         TransactionStatus_Pending,
		TradingAccount: tradingAccount,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}, nil
}

// Validate enforces the create-side invariants: valid type, positive amount
// and transfer fields present exactly for internal transfers.
func (tx *Transaction) Validate() error {
	if !tx.Type.IsValid() {
		return ErrTransactionBadType
	}
	if tx.Amount == nil || tx.Amount.V == nil || tx.Amount.V.Sign() <= 0 {
		return ErrTransactionBadAmount
	}
	if tx.Type == TransactionType_InternalTransfer {
		if tx.FromAccount == "" || tx.ToAccount == "" || tx.FromAccount == tx.ToAccount {
			return ErrTransactionBadTransfer
		}
		return nil
	}
	if tx.FromAccount != "" || tx.ToAccount != "" {
		return ErrTransactionBadTransfer
	}
	return nil
}

// MarshalJSON - convert the transaction into a json
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":               tx.ID,
		"user_id":          tx.UserID,
		"transaction_type": tx.Type,
		"amount":           tx.Amount.V.String(),
		"status":           tx.Status,
		"trading_account":  tx.TradingAccount,
		"from_account":     tx.FromAccount,
		"to_account":       tx.ToAccount,
		"approved_by_id":   tx.ApprovedByID,
		"approved_at":      tx.ApprovedAt,
		"admin_comment":    tx.AdminComment,
		"payout_to":        tx.PayoutTo,
		"external_account": tx.ExternalAccount,
		"created_at":       tx.CreatedAt,
		"updated_at":       tx.UpdatedAt,
	})
}

// TransactionWithUser structure
type TransactionWithUser struct {
	Transaction
	UserEmail string `gorm:"column:email" json:"user_email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TransactionList structure
type TransactionList struct {
	Transactions []TransactionWithUser `json:"transactions"`
	Meta         PagingMeta            `json:"meta"`
}

// CreateTransactionRequest binds the client-facing create payload
type CreateTransactionRequest struct {
	Type            TransactionType `form:"transaction_type" json:"transaction_type" binding:"required"`
	Amount          *decimal.Big    `form:"amount" json:"amount" binding:"required"`
	TradingAccount  string          `form:"trading_account" json:"trading_account"`
	FromAccount     string          `form:"from_account" json:"from_account"`
	ToAccount       string          `form:"to_account" json:"to_account"`
	PayoutTo        PayoutMethod    `form:"payout_to" json:"payout_to"`
	ExternalAccount string          `form:"external_account" json:"external_account"`
}
