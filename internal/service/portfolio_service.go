package service

import (
	"context"
	"fmt"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"github.com/shopspring/decimal"
)

type PortfolioService struct {
	store     repository.Store
	directory *DirectoryService
	wallets   *WalletService
}

func NewPortfolioService(store repository.Store, directory *DirectoryService, wallets *WalletService) *PortfolioService {
	return &PortfolioService{store: store, directory: directory, wallets: wallets}
}

// Portfolio 投资人总览
type Portfolio struct {
	InvestorID          string              `json:"investor_id"`
	Balance             int64               `json:"balance"`
	TotalInvested       int64               `json:"total_invested"`
	TotalExpectedReturn int64               `json:"total_expected_return"`
	ReturnPercent       float64             `json:"return_percent"`
	ActiveCount         int                 `json:"active_count"`
	Investments         []*model.Investment `json:"investments"`
}

func (s *PortfolioService) Portfolio(ctx context.Context, investorID string) (*Portfolio, error) {
	if _, err := s.directory.GetUser(ctx, investorID); err != nil {
		return nil, err
	}
	investments, err := s.store.Investments().ListByInvestor(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("查询投资失败: %w", err)
	}
	balance, err := s.wallets.GetBalance(ctx, nil, investorID)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{InvestorID: investorID, Balance: balance, Investments: investments}
	for _, inv := range investments {
		p.TotalInvested += inv.Amount
		p.TotalExpectedReturn += inv.ExpectedReturn
		if inv.Status == model.InvestmentStatusActive {
			p.ActiveCount++
		}
	}
	// 收益率 = 预期收益 / 投资总额，保留一位小数
	if p.TotalInvested > 0 {
		p.ReturnPercent, _ = decimal.NewFromInt(p.TotalExpectedReturn).
			Div(decimal.NewFromInt(p.TotalInvested)).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			Float64()
	}
	return p, nil
}

// ProjectFunding 项目募集详情
type ProjectFunding struct {
	Project       *model.Project      `json:"project"`
	Progress      float64             `json:"progress"`
	InvestorCount int                 `json:"investor_count"`
	Investments   []*model.Investment `json:"investments"`
}

func (s *PortfolioService) ProjectFunding(ctx context.Context, projectID string) (*ProjectFunding, error) {
	project, err := s.directory.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	investments, err := s.store.Investments().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("查询投资失败: %w", err)
	}

	investors := make(map[string]struct{})
	for _, inv := range investments {
		investors[inv.InvestorID] = struct{}{}
	}
	return &ProjectFunding{
		Project:       project,
		Progress:      project.FundingProgress(),
		InvestorCount: len(investors),
		Investments:   investments,
	}, nil
}
