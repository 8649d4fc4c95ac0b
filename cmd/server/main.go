package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdfund/internal/config"
	"crowdfund/internal/handler"
	"crowdfund/internal/infrastructure/cache"
	"crowdfund/internal/infrastructure/database"
	"crowdfund/internal/infrastructure/lock"
	"crowdfund/internal/infrastructure/mq"
	"crowdfund/internal/job"
	"crowdfund/internal/repository"
	"crowdfund/internal/service"
	"crowdfund/pkg/idgen"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg := config.LoadConfig(*configPath)

	// 初始化 ID 生成器
	idgen.Init(1)

	// 初始化账本存储
	store := openStore(cfg)

	// 用户维度的锁：多实例共享 MySQL 时使用 Redis
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		redisClient := cache.InitRedis(&cfg.Redis)
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, cfg.Business.LockTTL)
	}

	// 消息投递：未启用 Kafka 时只打印日志
	var sender job.MessageSender = mq.LogSender{}
	if cfg.Kafka.Enabled {
		producer := mq.InitKafka(&cfg.Kafka)
		defer producer.Close()
		sender = producer
	}

	fees, err := service.NewFeeCalculator(&cfg.Funding)
	if err != nil {
		log.Fatalf("费率配置错误: %v", err)
	}

	wallets := service.NewWalletService(store)
	notifier := service.NewNotificationService(store, cfg.Kafka.Topic.Notifications)
	directory := service.NewDirectoryService(store, notifier)
	gateway := service.NewSimulatedGateway(cfg.Gateway.Delay)
	funding := service.NewFundingService(cfg, store, wallets, fees, directory, notifier, gateway, locker)
	portfolio := service.NewPortfolioService(store, directory, wallets)
	settlement := service.NewSettlementService(cfg, store, wallets, notifier, locker)

	if err := directory.SeedAdmin(context.Background(), &cfg.Seed); err != nil {
		log.Fatalf("初始化管理员失败: %v", err)
	}

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	outboxSender := job.NewOutboxSender(store, sender, cfg.Business.OutboxInterval, cfg.Business.MaxRetryCount)
	go outboxSender.Start(ctx)

	// 设置路由
	gin.SetMode(gin.ReleaseMode)
	router := handler.SetupRouter(handler.NewHandler(funding, wallets, directory, notifier, portfolio, settlement))

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	log.Println("服务已关闭")
}

func openStore(cfg *config.Config) repository.Store {
	switch cfg.Store.Driver {
	case config.StoreDriverMySQL:
		return repository.NewGormStore(database.InitMySQL(&cfg.MySQL))
	case config.StoreDriverMemory:
		log.Println("使用内存账本，重启后数据丢失")
		return repository.NewMemoryStore()
	case config.StoreDriverFile:
		store, err := repository.NewFileStore(cfg.Store.FilePath)
		if err != nil {
			log.Fatalf("打开账本文件失败: %v", err)
		}
		log.Printf("账本文件: %s", cfg.Store.FilePath)
		return store
	default:
		log.Fatalf("未知的 store.driver: %s", cfg.Store.Driver)
		return nil
	}
}
