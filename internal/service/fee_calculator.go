package service

import (
	"fmt"

	"crowdfund/internal/config"
	"crowdfund/internal/model"

	"github.com/shopspring/decimal"
)

const (
	FeeKindFlat    = "flat"
	FeeKindPercent = "percent"
)

// FeeRule flat 时 Value 为固定金额，percent 时 Value 为比例
type FeeRule struct {
	Kind  string
	Value decimal.Decimal
}

func (r FeeRule) apply(amount int64) int64 {
	if r.Kind == FeeKindFlat {
		return r.Value.Round(0).IntPart()
	}
	return roundHalfUp(decimal.NewFromInt(amount).Mul(r.Value))
}

// WithdrawalFees 提现费用拆分
type WithdrawalFees struct {
	MethodFee   int64 `json:"method_fee"`
	PlatformFee int64 `json:"platform_fee"`
	TotalFee    int64 `json:"total_fee"`
	NetAmount   int64 `json:"net_amount"`
}

// FeeCalculator 无状态，所有金额为整数货币单位
type FeeCalculator struct {
	depositRules      map[model.PaymentMethod]FeeRule
	withdrawalRules   map[model.PaymentMethod]FeeRule
	platformFeeRate   decimal.Decimal
	withdrawalFeeRate decimal.Decimal
}

func NewFeeCalculator(cfg *config.FundingConfig) (*FeeCalculator, error) {
	depositRules, err := buildFeeRules("deposit_fees", cfg.DepositFees)
	if err != nil {
		return nil, err
	}
	withdrawalRules, err := buildFeeRules("withdrawal_fees", cfg.WithdrawalFees)
	if err != nil {
		return nil, err
	}
	return &FeeCalculator{
		depositRules:      depositRules,
		withdrawalRules:   withdrawalRules,
		platformFeeRate:   decimal.NewFromFloat(cfg.PlatformFeeRate),
		withdrawalFeeRate: decimal.NewFromFloat(cfg.WithdrawalFeeRate),
	}, nil
}

func buildFeeRules(name string, table map[string]config.FeeRuleConfig) (map[model.PaymentMethod]FeeRule, error) {
	rules := make(map[model.PaymentMethod]FeeRule, len(table))
	for key, rc := range table {
		method, ok := model.ParsePaymentMethod(key)
		if !ok {
			return nil, fmt.Errorf("%s: 未知支付方式 %q", name, key)
		}
		if rc.Kind != FeeKindFlat && rc.Kind != FeeKindPercent {
			return nil, fmt.Errorf("%s.%s: 未知费率类型 %q", name, key, rc.Kind)
		}
		if rc.Value < 0 {
			return nil, fmt.Errorf("%s.%s: 费率不能为负", name, key)
		}
		rules[method] = FeeRule{Kind: rc.Kind, Value: decimal.NewFromFloat(rc.Value)}
	}
	return rules, nil
}

// SupportsDeposit 充值费率表中是否配置了该方式
func (c *FeeCalculator) SupportsDeposit(method model.PaymentMethod) bool {
	_, ok := c.depositRules[method]
	return ok
}

func (c *FeeCalculator) SupportsWithdrawal(method model.PaymentMethod) bool {
	_, ok := c.withdrawalRules[method]
	return ok
}

func (c *FeeCalculator) DepositFee(amount int64, method model.PaymentMethod) (int64, error) {
	rule, ok := c.depositRules[method]
	if !ok {
		return 0, invalid("method", "不支持的充值方式 %q", method)
	}
	return rule.apply(amount), nil
}

// WithdrawalFees 渠道费与平台费各自四舍五入后相加，NetAmount 展示时不小于0
func (c *FeeCalculator) WithdrawalFees(amount int64, method model.PaymentMethod) (WithdrawalFees, error) {
	rule, ok := c.withdrawalRules[method]
	if !ok {
		return WithdrawalFees{}, invalid("method", "不支持的提现方式 %q", method)
	}
	fees := WithdrawalFees{
		MethodFee:   rule.apply(amount),
		PlatformFee: roundHalfUp(decimal.NewFromInt(amount).Mul(c.withdrawalFeeRate)),
	}
	fees.TotalFee = fees.MethodFee + fees.PlatformFee
	fees.NetAmount = amount - fees.TotalFee
	if fees.NetAmount < 0 {
		fees.NetAmount = 0
	}
	return fees, nil
}

// PlatformCommission 投资时平台抽成
func (c *FeeCalculator) PlatformCommission(amount int64) int64 {
	return roundHalfUp(decimal.NewFromInt(amount).Mul(c.platformFeeRate))
}

// OwnerEarnings 投资额扣除平台抽成后计入项目方收益
func (c *FeeCalculator) OwnerEarnings(amount int64) int64 {
	return amount - c.PlatformCommission(amount)
}

func (c *FeeCalculator) ExpectedReturn(amount int64, rate decimal.Decimal) int64 {
	return roundHalfUp(decimal.NewFromInt(amount).Mul(rate))
}

// decimal.Round 对正数即四舍五入
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
