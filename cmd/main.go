package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Gopher0727/Fredagslunchen/config"
	"github.com/Gopher0727/Fredagslunchen/internal/handlers"
	"github.com/Gopher0727/Fredagslunchen/internal/notify"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	"github.com/Gopher0727/Fredagslunchen/internal/routers"
	"github.com/Gopher0727/Fredagslunchen/internal/services"
	"github.com/Gopher0727/Fredagslunchen/internal/storage"
	"github.com/Gopher0727/Fredagslunchen/internal/utils"
	"github.com/Gopher0727/Fredagslunchen/middleware/jwt"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
	"github.com/Gopher0727/Fredagslunchen/pkg/mq"
	"github.com/Gopher0727/Fredagslunchen/utils/ratelimit"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	appLog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer appLog.Close()

	// 初始化 PostgreSQL（含自动迁移）
	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	db, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		appLog.Fatal("postgres 初始化失败", zap.Error(err))
	}

	// Redis 可选：未配置或连接失败时不使用缓存和限流
	var redisClient *redis.Client
	var limiter ratelimit.Limiter
	if cfg.Redis.Enabled() {
		redisClient, err = storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
		if err != nil {
			appLog.Warn("redis 初始化失败，缓存与限流已关闭", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			limiter = ratelimit.NewFixedWindowLimiter(redisClient, appLog.Logger, cfg.RateLimit.FailOpen)
		}
	}

	// 通知：Kafka 不可用时降级为只记录日志
	pool := utils.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appLog.Logger)
	pool.Start()

	var notifier notify.Notifier = notify.NewLogNotifier(appLog)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			appLog.Warn("Kafka 生产者初始化失败，通知只记录日志", zap.Error(err))
		} else {
			defer producer.Close()
			notifier = notify.NewKafkaNotifier(producer, pool, appLog)
		}
	}
	// 先排空队列再关闭生产者
	defer pool.Stop()

	// 初始化仓储层
	tx := repositories.NewTransactor(db)
	userRepo := repositories.NewUserRepository(db, redisClient)
	groupRepo := repositories.NewGroupRepository(db)
	lunchRepo := repositories.NewLunchRepository(db)
	statsRepo := repositories.NewStatsRepository(db, redisClient, cfg.Admin.StatsCacheTTL)

	// 初始化服务层
	tokens := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)
	userService := services.NewUserService(userRepo, tokens)
	groupService := services.NewGroupService(tx, userRepo, groupRepo, lunchRepo, appLog)
	membershipService := services.NewMembershipService(tx, userRepo, groupRepo, lunchRepo, appLog)
	inviteService := services.NewInviteService(userRepo, groupRepo, notifier, appLog)
	lunchService := services.NewLunchService(tx, groupRepo, lunchRepo)
	scoreService := services.NewScoreService(tx, userRepo, groupRepo, lunchRepo, notifier, appLog)
	adminService := services.NewAdminService(statsRepo)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	err = routers.SetupRoutes(r, routers.Deps{
		Logger:         appLog,
		TrustedProxies: cfg.Server.TrustedProxies,
		Tokens:         tokens,
		Limiter:        limiter,
		AuthRule:       ratelimit.PerMinute(cfg.RateLimit.AuthPerMinute),
		Users:          handlers.NewUserHandler(userService, appLog),
		Groups:         handlers.NewGroupHandler(groupService, membershipService, inviteService, appLog),
		Lunch:          handlers.NewLunchHandler(lunchService, scoreService, appLog),
		Admin:          handlers.NewAdminHandler(adminService, groupService, appLog),
	})
	if err != nil {
		appLog.Fatal("路由初始化失败", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLog.Info("正在启动服务器", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("服务器异常退出", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	appLog.Info("正在关闭服务器")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("关闭服务器失败", zap.Error(err))
	}
}
