package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/infrastructure/lock"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/pkg/idgen"
)

// SettlementService 后台结算：把 processing 的提现流转为 completed 或 failed
//
// 结算失败时提现金额原路退回收益，手续费不收取。
type SettlementService struct {
	cfg      *config.Config
	store    repository.Store
	wallets  *WalletService
	notifier *NotificationService
	locker   lock.Locker
}

func NewSettlementService(cfg *config.Config, store repository.Store, wallets *WalletService, notifier *NotificationService, locker lock.Locker) *SettlementService {
	return &SettlementService{cfg: cfg, store: store, wallets: wallets, notifier: notifier, locker: locker}
}

type SettleRequest struct {
	Status model.TransactionStatus `json:"status" binding:"required"`
	Reason string                  `json:"reason"`
}

func (s *SettlementService) SettleWithdrawal(ctx context.Context, transactionID string, req *SettleRequest) (*model.Transaction, error) {
	if req.Status != model.TransactionStatusCompleted && req.Status != model.TransactionStatusFailed {
		return nil, invalid("status", "只能结算为 completed 或 failed")
	}

	trans, err := s.getWithdrawal(ctx, s.store, transactionID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.WalletLockKey(trans.UserID), idgen.GenerateTransactionNo())
	if err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer unlock()

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		trans, err = s.getWithdrawal(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if !model.CanTransitionTo(trans.Status, req.Status) {
			return invalid("status", "流水状态 %s 不能变更为 %s", trans.Status, req.Status)
		}
		if err := tx.Transactions().UpdateStatus(ctx, trans.ID, trans.Status, req.Status); err != nil {
			return fmt.Errorf("更新流水状态失败: %w", err)
		}
		trans.Status = req.Status

		typ, title := model.NotificationWithdrawalCompleted, "提现已到账"
		message := fmt.Sprintf("提现 %d 已完成，实际到账 %d", trans.Amount, trans.NetAmount)
		if req.Status == model.TransactionStatusFailed {
			earnings, err := s.wallets.AdjustEarnings(ctx, tx, trans.UserID, trans.Amount, AdjustAdd)
			if err != nil {
				return err
			}
			typ, title = model.NotificationWithdrawalFailed, "提现失败"
			message = fmt.Sprintf("提现 %d 未能完成，金额已退回收益，当前收益 %d", trans.Amount, earnings)
			if req.Reason != "" {
				message += "。原因：" + req.Reason
			}
		}
		if _, err := s.notifier.Emit(ctx, tx, trans.UserID, typ, title, message); err != nil {
			return err
		}

		return writeOutbox(ctx, tx, s.cfg.Kafka.Topic.LedgerEvents, trans.ID, model.EventWithdrawalSettled, &model.LedgerEvent{
			Event:        model.EventWithdrawalSettled,
			UserID:       trans.UserID,
			Transactions: []string{trans.ID},
			Amount:       trans.Amount,
			Fees:         trans.Fees,
			NetAmount:    trans.NetAmount,
			Status:       trans.Status,
			OccurredAt:   time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SettlementService] 提现结算: txn=%s, status=%s", trans.ID, trans.Status)
	return trans, nil
}

func (s *SettlementService) getWithdrawal(ctx context.Context, store repository.Store, id string) (*model.Transaction, error) {
	trans, err := store.Transactions().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, &NotFoundError{Entity: EntityTransaction, ID: id}
		}
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}
	if trans.Type != model.TransactionTypeWithdrawal {
		return nil, invalid("transaction_id", "不是提现流水")
	}
	return trans, nil
}
