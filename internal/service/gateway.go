package service

import (
	"context"
	"log"
	"time"

	"crowdfund/internal/model"
)

// PaymentGateway 外部支付渠道，确认成功返回 nil
type PaymentGateway interface {
	ConfirmPayment(ctx context.Context, amount int64, method model.PaymentMethod) error
}

// SimulatedGateway 固定延迟后确认成功，没有失败分支
type SimulatedGateway struct {
	delay time.Duration
}

func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{delay: delay}
}

func (g *SimulatedGateway) ConfirmPayment(ctx context.Context, amount int64, method model.PaymentMethod) error {
	if g.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		log.Printf("[Gateway] 支付已确认: amount=%d, method=%s", amount, method)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
