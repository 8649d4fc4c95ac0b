package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/infrastructure/lock"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/pkg/idgen"
)

// FundingService 资金引擎：充值、提现、投资
//
// 【执行顺序】
// 1. 事务外：参数与边界校验（不读余额）
// 2. 获取用户维度的锁
// 3. 事务内：余额/收益充足性检查 -> 全部写入（钱包、流水、通知、outbox）
//
// 任何一步失败都不会留下部分写入。
type FundingService struct {
	cfg       *config.Config
	store     repository.Store
	wallets   *WalletService
	fees      *FeeCalculator
	directory *DirectoryService
	notifier  *NotificationService
	gateway   PaymentGateway
	locker    lock.Locker
}

func NewFundingService(
	cfg *config.Config,
	store repository.Store,
	wallets *WalletService,
	fees *FeeCalculator,
	directory *DirectoryService,
	notifier *NotificationService,
	gateway PaymentGateway,
	locker lock.Locker,
) *FundingService {
	return &FundingService{
		cfg:       cfg,
		store:     store,
		wallets:   wallets,
		fees:      fees,
		directory: directory,
		notifier:  notifier,
		gateway:   gateway,
		locker:    locker,
	}
}

type DepositRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

type DepositResponse struct {
	Transaction *model.Transaction `json:"transaction"`
	Balance     int64              `json:"balance"`
}

// Deposit 校验 -> 等待支付确认 -> 入账。确认前不做任何写入
func (s *FundingService) Deposit(ctx context.Context, req *DepositRequest) (*DepositResponse, error) {
	funding := &s.cfg.Funding
	if req.Amount < funding.MinDeposit {
		return nil, invalid("amount", "充值金额不能低于 %d", funding.MinDeposit)
	}
	if req.Amount > funding.MaxDeposit {
		return nil, invalid("amount", "充值金额不能超过 %d", funding.MaxDeposit)
	}
	method, err := parseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	fee, err := s.fees.DepositFee(req.Amount, method)
	if err != nil {
		return nil, err
	}
	if _, err := s.directory.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	unlock, err := s.lockWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	trans := &model.Transaction{
		ID:          idgen.GenerateTransactionNo(),
		UserID:      req.UserID,
		Type:        model.TransactionTypeDeposit,
		Amount:      req.Amount,
		Fees:        fee,
		NetAmount:   req.Amount,
		Method:      method,
		Description: fmt.Sprintf("充值 %d（手续费 %d）", req.Amount, fee),
	}

	// 手续费由渠道在充值金额之外另行收取
	if err := s.gateway.ConfirmPayment(ctx, req.Amount+fee, method); err != nil {
		s.recordFailedDeposit(ctx, trans, err)
		return nil, &PaymentError{Method: string(method), Err: err}
	}

	// 渠道已扣款，入账不再受请求取消影响
	ctx = context.WithoutCancel(ctx)

	var balance int64
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		balance, err = s.wallets.AdjustBalance(ctx, tx, req.UserID, req.Amount, AdjustAdd)
		if err != nil {
			return err
		}

		trans.Status = model.TransactionStatusCompleted
		if err := tx.Transactions().Create(ctx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if _, err := s.notifier.Emit(ctx, tx, req.UserID, model.NotificationDepositCompleted,
			"充值成功", fmt.Sprintf("已到账 %d，手续费 %d，当前余额 %d", req.Amount, fee, balance)); err != nil {
			return err
		}

		return s.writeLedgerEvent(ctx, tx, trans.ID, &model.LedgerEvent{
			Event:        model.EventDeposited,
			UserID:       req.UserID,
			Transactions: []string{trans.ID},
			Amount:       req.Amount,
			Fees:         fee,
			NetAmount:    req.Amount,
			Status:       trans.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FundingService] 充值成功: txn=%s, user=%s, amount=%d, fee=%d", trans.ID, req.UserID, req.Amount, fee)
	return &DepositResponse{Transaction: trans, Balance: balance}, nil
}

// recordFailedDeposit 支付失败只记录一条失败流水，不动余额
func (s *FundingService) recordFailedDeposit(ctx context.Context, trans *model.Transaction, cause error) {
	// 请求可能已被取消，失败记录仍需落库
	ctx = context.WithoutCancel(ctx)

	trans.Status = model.TransactionStatusFailed
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Transactions().Create(ctx, trans); err != nil {
			return err
		}
		if _, err := s.notifier.Emit(ctx, tx, trans.UserID, model.NotificationDepositFailed,
			"充值失败", fmt.Sprintf("充值 %d 未能完成，余额未发生变化", trans.Amount)); err != nil {
			return err
		}
		return s.writeLedgerEvent(ctx, tx, trans.ID, &model.LedgerEvent{
			Event:        model.EventDepositFailed,
			UserID:       trans.UserID,
			Transactions: []string{trans.ID},
			Amount:       trans.Amount,
			Fees:         trans.Fees,
			Status:       trans.Status,
		})
	})
	if err != nil {
		log.Printf("[FundingService] 记录失败充值出错: txn=%s, err=%v", trans.ID, err)
		return
	}
	log.Printf("[FundingService] 充值失败: txn=%s, user=%s, cause=%v", trans.ID, trans.UserID, cause)
}

type WithdrawRequest struct {
	UserID string              `json:"user_id" binding:"required"`
	Amount int64               `json:"amount"`
	Method string              `json:"method"`
	Payout model.PayoutDetails `json:"payout"`
}

type WithdrawResponse struct {
	Transaction      *model.Transaction `json:"transaction"`
	Fees             WithdrawalFees     `json:"fees"`
	Earnings         int64              `json:"earnings"`
	SettlementWindow string             `json:"settlement_window"`
}

// Withdraw 从收益中提现，流水保持 processing，由后台结算流转终态
func (s *FundingService) Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResponse, error) {
	if req.Amount < s.cfg.Funding.MinWithdrawal {
		return nil, invalid("amount", "提现金额不能低于 %d", s.cfg.Funding.MinWithdrawal)
	}
	if _, err := s.directory.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	unlock, err := s.lockWallet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		trans    *model.Transaction
		fees     WithdrawalFees
		earnings int64
	)
	window := s.cfg.Business.SettlementWindow
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		available, err := s.wallets.GetEarnings(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if req.Amount > available {
			return &InsufficientFundsError{UserID: req.UserID, Source: SourceEarnings, Requested: req.Amount, Available: available}
		}

		method, err := parseMethod(req.Method)
		if err != nil {
			return err
		}
		if missing := req.Payout.MissingFields(method); len(missing) > 0 {
			return invalid("payout", "缺少收款信息: %v", missing)
		}
		fees, err = s.fees.WithdrawalFees(req.Amount, method)
		if err != nil {
			return err
		}
		if req.Amount-fees.TotalFee <= 0 {
			return invalid("amount", "扣除手续费 %d 后实际到账金额必须大于0", fees.TotalFee)
		}

		earnings, err = s.wallets.AdjustEarnings(ctx, tx, req.UserID, req.Amount, AdjustSubtract)
		if err != nil {
			return err
		}

		trans = &model.Transaction{
			ID:          idgen.GenerateTransactionNo(),
			UserID:      req.UserID,
			Type:        model.TransactionTypeWithdrawal,
			Amount:      req.Amount,
			Fees:        fees.TotalFee,
			NetAmount:   fees.NetAmount,
			Method:      method,
			Status:      model.TransactionStatusProcessing,
			Description: fmt.Sprintf("提现 %d（渠道费 %d，平台费 %d）", req.Amount, fees.MethodFee, fees.PlatformFee),
		}
		if err := tx.Transactions().Create(ctx, trans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if _, err := s.notifier.Emit(ctx, tx, req.UserID, model.NotificationWithdrawalRequested,
			"提现申请已受理", fmt.Sprintf("提现 %d，扣除手续费 %d 后实际到账 %d，预计 %s 内到账", req.Amount, fees.TotalFee, fees.NetAmount, window)); err != nil {
			return err
		}

		return s.writeLedgerEvent(ctx, tx, trans.ID, &model.LedgerEvent{
			Event:        model.EventWithdrawalRequested,
			UserID:       req.UserID,
			Transactions: []string{trans.ID},
			Amount:       req.Amount,
			Fees:         fees.TotalFee,
			NetAmount:    fees.NetAmount,
			Status:       trans.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FundingService] 提现受理: txn=%s, user=%s, amount=%d, net=%d", trans.ID, req.UserID, req.Amount, fees.NetAmount)
	return &WithdrawResponse{Transaction: trans, Fees: fees, Earnings: earnings, SettlementWindow: window}, nil
}

// QuoteWithdrawal 只计算费用，不做余额检查
func (s *FundingService) QuoteWithdrawal(amount int64, methodName string) (WithdrawalFees, error) {
	if amount <= 0 {
		return WithdrawalFees{}, invalid("amount", "必须大于0")
	}
	method, err := parseMethod(methodName)
	if err != nil {
		return WithdrawalFees{}, err
	}
	return s.fees.WithdrawalFees(amount, method)
}

type InvestRequest struct {
	InvestorID string `json:"investor_id" binding:"required"`
	ProjectID  string `json:"project_id" binding:"required"`
	Amount     int64  `json:"amount"`
}

type InvestResponse struct {
	Investment   *model.Investment    `json:"investment"`
	Transactions []*model.Transaction `json:"transactions"`
	Balance      int64                `json:"balance"`
}

// Invest 投资人出资，项目方按扣除平台抽成后的金额获得收益
func (s *FundingService) Invest(ctx context.Context, req *InvestRequest) (*InvestResponse, error) {
	project, err := s.directory.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.StatusApproved {
		return nil, invalid("project_id", "项目尚未通过审核")
	}
	investor, err := s.directory.GetUser(ctx, req.InvestorID)
	if err != nil {
		return nil, err
	}
	if investor.Role != model.RoleInvestor {
		return nil, invalid("investor_id", "只有投资人可以投资")
	}

	funding := &s.cfg.Funding
	if req.Amount < funding.MinInvestment {
		return nil, invalid("amount", "投资金额不能低于 %d", funding.MinInvestment)
	}
	if req.Amount > funding.MaxInvestment {
		return nil, invalid("amount", "投资金额不能超过 %d", funding.MaxInvestment)
	}
	if _, err := s.directory.GetUser(ctx, project.OwnerID); err != nil {
		return nil, err
	}

	unlock, err := s.lockWallet(ctx, req.InvestorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var resp InvestResponse
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		// 加锁后重新读取，防止审核状态已变化
		project, err := getProject(ctx, tx, req.ProjectID)
		if err != nil {
			return err
		}
		if project.Status != model.StatusApproved {
			return invalid("project_id", "项目尚未通过审核")
		}

		available, err := s.wallets.GetBalance(ctx, tx, req.InvestorID)
		if err != nil {
			return err
		}
		if req.Amount > available {
			return &InsufficientFundsError{UserID: req.InvestorID, Source: SourceBalance, Requested: req.Amount, Available: available}
		}

		resp.Balance, err = s.wallets.AdjustBalance(ctx, tx, req.InvestorID, req.Amount, AdjustSubtract)
		if err != nil {
			return err
		}

		now := time.Now()
		investment := &model.Investment{
			ID:             idgen.GenerateInvestmentNo(),
			InvestorID:     req.InvestorID,
			ProjectID:      project.ID,
			ProjectName:    project.Name,
			Amount:         req.Amount,
			ReturnRate:     project.ReturnRate,
			PeriodMonths:   project.PeriodMonths,
			ExpectedReturn: s.fees.ExpectedReturn(req.Amount, project.ReturnRate),
			Status:         model.InvestmentStatusActive,
			InvestmentDate: now,
		}
		if err := tx.Investments().Create(ctx, investment); err != nil {
			return fmt.Errorf("记录投资失败: %w", err)
		}

		investTrans := &model.Transaction{
			ID:          idgen.GenerateTransactionNo(),
			UserID:      req.InvestorID,
			Type:        model.TransactionTypeInvestment,
			Amount:      req.Amount,
			Status:      model.TransactionStatusCompleted,
			Reference:   investment.ID,
			Description: fmt.Sprintf("投资项目「%s」", project.Name),
		}
		if err := tx.Transactions().Create(ctx, investTrans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if err := tx.Projects().AddFunding(ctx, project.ID, req.Amount); err != nil {
			return fmt.Errorf("更新募集金额失败: %w", err)
		}

		commission := s.fees.PlatformCommission(req.Amount)
		ownerEarnings := req.Amount - commission
		if _, err := s.wallets.AdjustEarnings(ctx, tx, project.OwnerID, ownerEarnings, AdjustAdd); err != nil {
			return err
		}
		profitTrans := &model.Transaction{
			ID:          idgen.GenerateTransactionNo(),
			UserID:      project.OwnerID,
			Type:        model.TransactionTypeProfit,
			Amount:      ownerEarnings,
			Fees:        commission,
			Status:      model.TransactionStatusCompleted,
			Reference:   investment.ID,
			Description: fmt.Sprintf("项目「%s」获得投资 %d（平台抽成 %d）", project.Name, req.Amount, commission),
		}
		if err := tx.Transactions().Create(ctx, profitTrans); err != nil {
			return fmt.Errorf("记录流水失败: %w", err)
		}

		if _, err := s.notifier.Emit(ctx, tx, req.InvestorID, model.NotificationInvestmentConfirmed,
			"投资成功", fmt.Sprintf("您已投资「%s」%d，预期收益 %d", project.Name, req.Amount, investment.ExpectedReturn)); err != nil {
			return err
		}
		if _, err := s.notifier.Emit(ctx, tx, project.OwnerID, model.NotificationNewInvestment,
			"收到新投资", fmt.Sprintf("%s 投资了「%s」%d，计入收益 %d", investor.Name, project.Name, req.Amount, ownerEarnings)); err != nil {
			return err
		}

		resp.Investment = investment
		resp.Transactions = []*model.Transaction{investTrans, profitTrans}
		return s.writeLedgerEvent(ctx, tx, investment.ID, &model.LedgerEvent{
			Event:        model.EventInvested,
			UserID:       req.InvestorID,
			ProjectID:    project.ID,
			Transactions: []string{investTrans.ID, profitTrans.ID},
			Amount:       req.Amount,
			Fees:         commission,
			NetAmount:    ownerEarnings,
			Status:       model.TransactionStatusCompleted,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[FundingService] 投资成功: investment=%s, investor=%s, project=%s, amount=%d",
		resp.Investment.ID, req.InvestorID, req.ProjectID, req.Amount)
	return &resp, nil
}

// ListTransactions 按时间倒序分页
func (s *FundingService) ListTransactions(ctx context.Context, userID string, page, pageSize int) ([]*model.Transaction, int64, error) {
	if _, err := s.directory.GetUser(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.store.Transactions().ListByUserID(ctx, userID, page, pageSize)
}

func (s *FundingService) lockWallet(ctx context.Context, userID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, lock.WalletLockKey(userID), idgen.GenerateTransactionNo())
	if err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	return unlock, nil
}

func (s *FundingService) writeLedgerEvent(ctx context.Context, tx repository.Store, key string, event *model.LedgerEvent) error {
	event.OccurredAt = time.Now()
	return writeOutbox(ctx, tx, s.cfg.Kafka.Topic.LedgerEvents, key, event.Event, event)
}

func parseMethod(name string) (model.PaymentMethod, error) {
	if name == "" {
		return "", invalid("method", "请选择支付方式")
	}
	method, ok := model.ParsePaymentMethod(name)
	if !ok {
		return "", invalid("method", "未知支付方式 %q", name)
	}
	return method, nil
}
