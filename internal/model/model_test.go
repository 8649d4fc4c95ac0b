package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(TransactionStatusProcessing, TransactionStatusCompleted))
	assert.True(t, CanTransitionTo(TransactionStatusProcessing, TransactionStatusFailed))
	assert.True(t, CanTransitionTo(TransactionStatusPending, TransactionStatusProcessing))
	assert.False(t, CanTransitionTo(TransactionStatusCompleted, TransactionStatusFailed))
	assert.False(t, CanTransitionTo(TransactionStatusFailed, TransactionStatusCompleted))
	assert.False(t, CanTransitionTo(TransactionStatusProcessing, TransactionStatusPending))
}

func TestPayoutMissingFields(t *testing.T) {
	empty := PayoutDetails{}
	assert.Equal(t, []string{"bank_name", "account_number", "holder_name"}, empty.MissingFields(MethodBankTransfer))
	assert.Equal(t, []string{"phone", "holder_name"}, empty.MissingFields(MethodMobileWallet))

	mobile := PayoutDetails{Phone: "0100", HolderName: "  "}
	assert.Equal(t, []string{"holder_name"}, mobile.MissingFields(MethodMobileWallet))

	bank := PayoutDetails{BankName: "NBE", AccountNumber: "1", HolderName: "A"}
	assert.Empty(t, bank.MissingFields(MethodBankTransfer))
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod(" Bank_Transfer ")
	assert.True(t, ok)
	assert.Equal(t, MethodBankTransfer, m)

	_, ok = ParsePaymentMethod("paypal")
	assert.False(t, ok)
}

func TestFundingProgress(t *testing.T) {
	p := &Project{TargetAmount: 3000, CurrentAmount: 1000, ReturnRate: decimal.Zero}
	assert.Equal(t, 33.3, p.FundingProgress())

	p.TargetAmount = 0
	assert.Equal(t, 0.0, p.FundingProgress())
}
