package model

import (
	"strings"
	"time"

	"github.com/ericlagergren/decimal/sql/postgres"
)

// AccountType defined the list of possible trading account types
type AccountType string

const (
	AccountTypeStandard      AccountType = "standard"
	AccountTypeMam           AccountType = "mam"
	AccountTypeMamInvestment AccountType = "mam_investment"
	AccountTypeProp          AccountType = "prop"
	AccountTypeDemo          AccountType = "demo"
)

func (a AccountType) String() string {
	return string(a)
}

func (a AccountType) IsValid() bool {
	switch a {
	case AccountTypeStandard,
		AccountTypeMam,
		AccountTypeMamInvestment,
		AccountTypeProp,
		AccountTypeDemo:
		return true
	default:
		return false
	}
}

// TradingAccount links a back-office user to an MT5 login. Balance figures
// are snapshots for list views only; MT5 stays the source of truth.
type TradingAccount struct {
	ID        uint64      `sql:"type:bigint" gorm:"primary_key" json:"id"`
	AccountID string      `gorm:"column:account_id;unique" json:"account_id"`
	UserID    uint64      `gorm:"column:user_id" json:"user_id"`
	Type      AccountType `gorm:"column:account_type" sql:"type:account_type_t" json:"account_type"`
	GroupName string      `gorm:"column:group_name" json:"group_name"`

	Balance *postgres.Decimal `sql:"type:decimal(18,2)" json:"balance"`
	Equity  *postgres.Decimal `sql:"type:decimal(18,2)" json:"equity"`
	Margin  *postgres.Decimal `sql:"type:decimal(18,2)" json:"margin"`

	// CopyMultiplierMode is kept for DB compatibility with older rows;
	// CopyMode is the authoritative field.
	CopyMode           bool `gorm:"column:copy_mode" json:"copy_mode"`
	CopyMultiplierMode bool `gorm:"column:copy_multiplier_mode" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasDemoGroupName is one of the three demo predicates: the MT5 group string
// itself marks the account as a practice account.
func (account *TradingAccount) HasDemoGroupName() bool {
	return strings.Contains(strings.ToLower(account.GroupName), "demo")
}

// TradeGroup is the configured classification of an MT5 group string,
// used to exclude demo groups from commission generation.
type TradeGroup struct {
	ID        uint64    `sql:"type:bigint" gorm:"primary_key" json:"id"`
	GroupName string    `gorm:"column:group_name;unique" json:"group_name"`
	IsDemo    bool      `gorm:"column:is_demo" json:"is_demo"`
	CreatedAt time.Time `json:"created_at"`
}

// TradingAccountList structure
type TradingAccountList struct {
	Accounts []TradingAccount `json:"accounts"`
	Meta     PagingMeta       `json:"meta"`
}
