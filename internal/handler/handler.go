package handler

import (
	"errors"
	"log"
	"strconv"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/internal/service"
	"crowdfund/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	funding    *service.FundingService
	wallets    *service.WalletService
	directory  *service.DirectoryService
	notifier   *service.NotificationService
	portfolio  *service.PortfolioService
	settlement *service.SettlementService
}

// NewHandler 创建处理器实例
func NewHandler(
	funding *service.FundingService,
	wallets *service.WalletService,
	directory *service.DirectoryService,
	notifier *service.NotificationService,
	portfolio *service.PortfolioService,
	settlement *service.SettlementService,
) *Handler {
	return &Handler{
		funding:    funding,
		wallets:    wallets,
		directory:  directory,
		notifier:   notifier,
		portfolio:  portfolio,
		settlement: settlement,
	}
}

// handleError 业务错误统一映射为响应码
func handleError(c *gin.Context, err error) {
	var (
		verr *service.ValidationError
		ierr *service.InsufficientFundsError
		nerr *service.NotFoundError
		perr *service.PaymentError
	)
	switch {
	case errors.As(err, &verr):
		response.ParamError(c, verr.Error())
	case errors.As(err, &ierr):
		response.ErrorWithData(c, response.CodeInsufficientFunds, ierr.Error(), gin.H{
			"source":    ierr.Source,
			"requested": ierr.Requested,
			"available": ierr.Available,
			"shortfall": ierr.Shortfall(),
		})
	case errors.As(err, &nerr):
		response.Error(c, response.CodeNotFound, nerr.Error())
	case errors.Is(err, repository.ErrTransactionNotFound):
		response.Error(c, response.CodeNotFound, err.Error())
	case errors.As(err, &perr):
		response.BusinessError(c, response.CodePaymentFailed, perr.Error())
	case errors.Is(err, repository.ErrStatusTransition):
		response.BusinessError(c, response.CodeStatusInvalid, err.Error())
	default:
		log.Printf("[Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.ServerError(c, err.Error())
	}
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.ParamError(c, key+" 参数错误")
		return 0, false
	}
	return v, true
}

func requiredQuery(c *gin.Context, key string) (string, bool) {
	v := c.Query(key)
	if v == "" {
		response.ParamError(c, key+" 不能为空")
		return "", false
	}
	return v, true
}

// ============================================================
// 用户与项目
// ============================================================

// RegisterUser 注册
// POST /api/v1/users
func (h *Handler) RegisterUser(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.directory.RegisterUser(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

// GetUser GET /api/v1/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.directory.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

// CreateProject 项目方提交项目
// POST /api/v1/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	project, err := h.directory.CreateProject(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

// ListProjects GET /api/v1/projects?status=&owner_id=
func (h *Handler) ListProjects(c *gin.Context) {
	filter := repository.ProjectFilter{
		Status:  model.ReviewStatus(c.Query("status")),
		OwnerID: c.Query("owner_id"),
	}
	projects, err := h.directory.ListProjects(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"list": projects, "total": len(projects)})
}

// GetProject 项目详情与募集情况
// GET /api/v1/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	view, err := h.portfolio.ProjectFunding(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// ============================================================
// 钱包
// ============================================================

// GetWallet GET /api/v1/wallet?user_id=xxx
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := requiredQuery(c, "user_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.directory.GetUser(ctx, userID); err != nil {
		handleError(c, err)
		return
	}

	wallet, err := h.wallets.GetWallet(ctx, nil, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user_id":  userID,
		"balance":  wallet.Balance,
		"earnings": wallet.Earnings,
	})
}

// ListTransactions 资金流水，按时间倒序
// GET /api/v1/wallet/transactions?user_id=xxx&page=1&page_size=10
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := requiredQuery(c, "user_id")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size", 10)
	if !ok {
		return
	}

	list, total, err := h.funding.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"list":  list,
		"total": total,
		"page":  page,
	})
}

// Deposit 充值，等待支付渠道确认后入账
// POST /api/v1/wallet/deposit
func (h *Handler) Deposit(c *gin.Context) {
	var req service.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.funding.Deposit(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// Withdraw 提现申请
// POST /api/v1/wallet/withdraw
func (h *Handler) Withdraw(c *gin.Context) {
	var req service.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.funding.Withdraw(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// QuoteWithdrawal 提现手续费试算
// GET /api/v1/wallet/withdraw/quote?amount=1000&method=bank_transfer
func (h *Handler) QuoteWithdrawal(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil {
		response.ParamError(c, "amount 参数错误")
		return
	}

	fees, err := h.funding.QuoteWithdrawal(amount, c.Query("method"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, fees)
}

// ============================================================
// 投资
// ============================================================

// Invest POST /api/v1/investments
func (h *Handler) Invest(c *gin.Context) {
	var req service.InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	resp, err := h.funding.Invest(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

// Portfolio GET /api/v1/investments/portfolio?investor_id=xxx
func (h *Handler) Portfolio(c *gin.Context) {
	investorID, ok := requiredQuery(c, "investor_id")
	if !ok {
		return
	}

	p, err := h.portfolio.Portfolio(c.Request.Context(), investorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

// ============================================================
// 通知
// ============================================================

// ListNotifications GET /api/v1/notifications?user_id=xxx&limit=20
func (h *Handler) ListNotifications(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	list, err := h.notifier.List(c.Request.Context(), c.Query("user_id"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// CountUnread GET /api/v1/notifications/unread?user_id=xxx
func (h *Handler) CountUnread(c *gin.Context) {
	count, err := h.notifier.CountUnread(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// MarkReadRequest all 为 true 时忽略 ids
type MarkReadRequest struct {
	UserID string   `json:"user_id" binding:"required"`
	IDs    []string `json:"ids"`
	All    bool     `json:"all"`
}

// MarkRead POST /api/v1/notifications/read
func (h *Handler) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	var (
		changed int64
		err     error
	)
	if req.All {
		changed, err = h.notifier.MarkAllRead(ctx, req.UserID)
	} else {
		changed, err = h.notifier.MarkRead(ctx, req.UserID, req.IDs)
	}
	if err != nil {
		handleError(c, err)
		return
	}

	unread, err := h.notifier.CountUnread(ctx, req.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"marked": changed, "unread": unread})
}

// ============================================================
// 管理后台
// ============================================================

type ReviewRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// ReviewUser POST /api/v1/admin/users/:id/review
func (h *Handler) ReviewUser(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.directory.ReviewUser(c.Request.Context(), c.Param("id"), *req.Approve)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}

// ReviewProject POST /api/v1/admin/projects/:id/review
func (h *Handler) ReviewProject(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	project, err := h.directory.ReviewProject(c.Request.Context(), c.Param("id"), *req.Approve)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

// SettleWithdrawal 提现结算
// POST /api/v1/admin/withdrawals/:id/settle
func (h *Handler) SettleWithdrawal(c *gin.Context) {
	var req service.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	trans, err := h.settlement.SettleWithdrawal(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, trans)
}
