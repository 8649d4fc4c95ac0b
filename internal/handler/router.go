package handler

import (
	"crowdfund/internal/model"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置路由
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("", h.RegisterUser)
			users.GET("/:id", h.GetUser)
		}

		projects := api.Group("/projects")
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:id", h.GetProject)
		}

		// 钱包与资金
		wallet := api.Group("/wallet")
		{
			wallet.GET("", h.GetWallet)
			wallet.GET("/transactions", h.ListTransactions)
			wallet.POST("/deposit", h.Deposit)
			wallet.POST("/withdraw", h.Withdraw)
			wallet.GET("/withdraw/quote", h.QuoteWithdrawal)
		}

		investments := api.Group("/investments")
		{
			investments.POST("", h.Invest)
			investments.GET("/portfolio", h.Portfolio)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.GET("/unread", h.CountUnread)
			notifications.POST("/read", h.MarkRead)
		}

		// 管理后台，需要管理员身份
		admin := api.Group("/admin", RequireRole(h.directory, model.RoleAdmin))
		{
			admin.POST("/users/:id/review", h.ReviewUser)
			admin.POST("/projects/:id/review", h.ReviewProject)
			admin.POST("/withdrawals/:id/settle", h.SettleWithdrawal)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
