package model

import (
	"testing"

	"github.com/ericlagergren/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionValidate(t *testing.T) {
	amount, _ := new(decimal.Big).SetString("100.50")

	tx, err := NewTransaction(42, TransactionType_DepositTrading, amount, "7000123")
	assert.NoError(t, err)
	assert.Equal(t, TransactionStatus_Pending, tx.Status)
	assert.NoError(t, tx.Validate())

	tx.Amount.V = new(decimal.Big)
	assert.Equal(t, ErrTransactionBadAmount, tx.Validate())

	negative, _ := new(decimal.Big).SetString("-5")
	tx.Amount.V = negative
	assert.Equal(t, ErrTransactionBadAmount, tx.Validate())

	tx.Amount.V = amount
	tx.Type = TransactionType("chargeback")
	assert.Equal(t, ErrTransactionBadType, tx.Validate())

	// transfer fields belong to internal transfers only
	tx.Type = TransactionType_DepositTrading
	tx.FromAccount = "7000123"
	assert.Equal(t, ErrTransactionBadTransfer, tx.Validate())
}

func TestTransactionValidateInternalTransfer(t *testing.T) {
	amount, _ := new(decimal.Big).SetString("25")
	tx, err := NewTransaction(42, TransactionType_InternalTransfer, amount, "")
	assert.NoError(t, err)

	tx.FromAccount = "7000123"
	tx.ToAccount = "7000456"
	assert.NoError(t, tx.Validate())

	tx.ToAccount = tx.FromAccount
	assert.Equal(t, ErrTransactionBadTransfer, tx.Validate())

	tx.ToAccount = ""
	assert.Equal(t, ErrTransactionBadTransfer, tx.Validate())
}

func TestTransactionStatusTerminal(t *testing.T) {
	assert.False(t, TransactionStatus_Pending.IsTerminal())
	assert.True(t, TransactionStatus_Approved.IsTerminal())
	assert.True(t, TransactionStatus_Rejected.IsTerminal())
}

func TestTransactionTypeIsWithdrawal(t *testing.T) {
	assert.True(t, TransactionType_WithdrawTrading.IsWithdrawal())
	assert.True(t, TransactionType_CommissionWithdrawal.IsWithdrawal())
	assert.False(t, TransactionType_DepositTrading.IsWithdrawal())
	assert.False(t, TransactionType_InternalTransfer.IsWithdrawal())
}
