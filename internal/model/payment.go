package model

import "strings"

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodMobileWallet PaymentMethod = "mobile_wallet"
	MethodCard         PaymentMethod = "card"
)

var paymentMethods = []PaymentMethod{MethodBankTransfer, MethodMobileWallet, MethodCard}

// ParsePaymentMethod 未知方式返回 false，不做兜底
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range paymentMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// PayoutDetails 提现收款信息
type PayoutDetails struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	HolderName    string `json:"holder_name,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// MissingFields 返回指定提现方式下缺失的字段
func (d PayoutDetails) MissingFields(method PaymentMethod) []string {
	required := map[string]string{"holder_name": d.HolderName}
	switch method {
	case MethodBankTransfer:
		required["bank_name"] = d.BankName
		required["account_number"] = d.AccountNumber
	case MethodMobileWallet:
		required["phone"] = d.Phone
	}

	var missing []string
	for _, name := range []string{"bank_name", "account_number", "phone", "holder_name"} {
		value, ok := required[name]
		if ok && strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
