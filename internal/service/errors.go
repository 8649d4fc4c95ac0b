package service

import (
	"errors"
	"fmt"
)

// ValidationError 参数或业务边界校验失败，Reason 原样返回给调用方
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

const (
	SourceBalance  = "balance"
	SourceEarnings = "earnings"
)

// InsufficientFundsError 余额或收益不足
type InsufficientFundsError struct {
	UserID    string
	Source    string
	Requested int64
	Available int64
}

func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Requested - e.Available
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s不足: 需要 %d, 可用 %d, 差额 %d", e.Source, e.Requested, e.Available, e.Shortfall())
}

const (
	EntityUser        = "用户"
	EntityProject     = "项目"
	EntityTransaction = "流水"
)

// NotFoundError 用户或项目不存在
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s不存在: %s", e.Entity, e.ID)
}

// PaymentError 支付渠道确认失败
type PaymentError struct {
	Method string
	Err    error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("支付确认失败(%s): %v", e.Method, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// ErrForbidden 角色不允许执行该操作
var ErrForbidden = errors.New("无权限执行该操作")
