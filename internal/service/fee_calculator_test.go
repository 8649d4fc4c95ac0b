package service

import (
	"errors"
	"testing"

	"crowdfund/internal/config"
	"crowdfund/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultFees(t *testing.T) *FeeCalculator {
	t.Helper()
	fees, err := NewFeeCalculator(&config.Default().Funding)
	require.NoError(t, err)
	return fees
}

func TestDepositFee(t *testing.T) {
	fees := newDefaultFees(t)

	tests := []struct {
		method model.PaymentMethod
		amount int64
		want   int64
	}{
		{model.MethodBankTransfer, 1000, 5},
		{model.MethodBankTransfer, 50, 5},
		{model.MethodMobileWallet, 1000, 10},
		{model.MethodMobileWallet, 150, 2},
		{model.MethodCard, 1000, 25},
		{model.MethodCard, 100, 3},
	}
	for _, tt := range tests {
		got, err := fees.DepositFee(tt.amount, tt.method)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %d", tt.method, tt.amount)
	}
}

func TestWithdrawalFeesBank(t *testing.T) {
	fees := newDefaultFees(t)

	got, err := fees.WithdrawalFees(1000, model.MethodBankTransfer)
	require.NoError(t, err)
	assert.Equal(t, WithdrawalFees{MethodFee: 10, PlatformFee: 20, TotalFee: 30, NetAmount: 970}, got)
}

func TestWithdrawalFeesUnknownMethod(t *testing.T) {
	fees := newDefaultFees(t)

	_, err := fees.WithdrawalFees(1000, model.MethodCard)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "method", verr.Field)
}

func TestWithdrawalFeesSumExactly(t *testing.T) {
	fees := newDefaultFees(t)

	for amount := int64(100); amount <= 5000; amount += 37 {
		for _, method := range []model.PaymentMethod{model.MethodBankTransfer, model.MethodMobileWallet} {
			got, err := fees.WithdrawalFees(amount, method)
			require.NoError(t, err)
			assert.Equal(t, amount, got.NetAmount+got.TotalFee)
			assert.Equal(t, got.MethodFee+got.PlatformFee, got.TotalFee)
			assert.Less(t, got.NetAmount, amount)
		}
	}
}

func TestWithdrawalFeesNetFlooredAtZero(t *testing.T) {
	cfg := config.Default().Funding
	cfg.WithdrawalFees = map[string]config.FeeRuleConfig{"bank_transfer": {Kind: "flat", Value: 500}}
	fees, err := NewFeeCalculator(&cfg)
	require.NoError(t, err)

	got, err := fees.WithdrawalFees(100, model.MethodBankTransfer)
	require.NoError(t, err)
	assert.Equal(t, int64(502), got.TotalFee)
	assert.Equal(t, int64(0), got.NetAmount)
}

func TestPlatformCommission(t *testing.T) {
	fees := newDefaultFees(t)

	assert.Equal(t, int64(18), fees.PlatformCommission(600))
	assert.Equal(t, int64(582), fees.OwnerEarnings(600))
	// 0.5 向上取整
	assert.Equal(t, int64(17), fees.PlatformCommission(550))
	assert.Equal(t, int64(60), fees.ExpectedReturn(600, decimal.RequireFromString("0.10")))
	assert.Equal(t, int64(63), fees.ExpectedReturn(625, decimal.RequireFromString("0.10")))
}

func TestNewFeeCalculatorRejectsBadConfig(t *testing.T) {
	cfg := config.Default().Funding
	cfg.DepositFees = map[string]config.FeeRuleConfig{"paypal": {Kind: "flat", Value: 1}}
	_, err := NewFeeCalculator(&cfg)
	assert.Error(t, err)

	cfg = config.Default().Funding
	cfg.DepositFees = map[string]config.FeeRuleConfig{"card": {Kind: "tiered", Value: 1}}
	_, err = NewFeeCalculator(&cfg)
	assert.Error(t, err)
}
