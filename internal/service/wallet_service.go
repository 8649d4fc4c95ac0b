package service

import (
	"context"
	"errors"
	"fmt"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"
)

type AdjustMode string

const (
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
	AdjustSet      AdjustMode = "set"
)

// WalletService 钱包读写，不做任何业务校验（最小值、余额是否充足由 FundingService 负责）
type WalletService struct {
	store repository.Store
}

func NewWalletService(store repository.Store) *WalletService {
	return &WalletService{store: store}
}

// GetBalance 钱包不存在时返回0
func (s *WalletService) GetBalance(ctx context.Context, tx repository.Store, userID string) (int64, error) {
	wallet, err := s.GetWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (s *WalletService) GetEarnings(ctx context.Context, tx repository.Store, userID string) (int64, error) {
	wallet, err := s.GetWallet(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Earnings, nil
}

// GetWallet 钱包不存在时返回零值钱包（不落库）
func (s *WalletService) GetWallet(ctx context.Context, tx repository.Store, userID string) (*model.Wallet, error) {
	wallet, err := s.pick(tx).Wallets().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return &model.Wallet{UserID: userID}, nil
		}
		return nil, fmt.Errorf("查询钱包失败: %w", err)
	}
	return wallet, nil
}

// AdjustBalance 调整可投资余额，返回调整后的值
func (s *WalletService) AdjustBalance(ctx context.Context, tx repository.Store, userID string, amount int64, mode AdjustMode) (int64, error) {
	return s.adjust(ctx, tx, userID, func(w *model.Wallet) error {
		next, err := applyAdjust(w.Balance, amount, mode)
		w.Balance = next
		return err
	}, func(w *model.Wallet) int64 { return w.Balance })
}

// AdjustEarnings 调整可提现收益，返回调整后的值
func (s *WalletService) AdjustEarnings(ctx context.Context, tx repository.Store, userID string, amount int64, mode AdjustMode) (int64, error) {
	return s.adjust(ctx, tx, userID, func(w *model.Wallet) error {
		next, err := applyAdjust(w.Earnings, amount, mode)
		w.Earnings = next
		return err
	}, func(w *model.Wallet) int64 { return w.Earnings })
}

func (s *WalletService) adjust(ctx context.Context, tx repository.Store, userID string, mutate func(*model.Wallet) error, field func(*model.Wallet) int64) (int64, error) {
	var result int64
	err := s.pick(tx).Transaction(ctx, func(tx repository.Store) error {
		wallet, err := tx.Wallets().GetForUpdate(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrWalletNotFound) {
				return fmt.Errorf("查询钱包失败: %w", err)
			}
			wallet = &model.Wallet{UserID: userID}
		}
		if err := mutate(wallet); err != nil {
			return err
		}
		if err := tx.Wallets().Upsert(ctx, wallet); err != nil {
			return fmt.Errorf("更新钱包失败: %w", err)
		}
		result = field(wallet)
		return nil
	})
	return result, err
}

func (s *WalletService) pick(tx repository.Store) repository.Store {
	if tx != nil {
		return tx
	}
	return s.store
}

// applyAdjust 结果不小于0，subtract 的下限只是兜底
func applyAdjust(current, amount int64, mode AdjustMode) (int64, error) {
	if amount < 0 {
		return current, invalid("amount", "调整金额不能为负")
	}
	var next int64
	switch mode {
	case AdjustAdd:
		next = current + amount
	case AdjustSubtract:
		next = current - amount
	case AdjustSet:
		next = amount
	default:
		return current, invalid("mode", "未知调整方式 %q", mode)
	}
	if next < 0 {
		next = 0
	}
	return next, nil
}
