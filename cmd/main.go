package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bill-gateway-api/internal/cache"
	"bill-gateway-api/internal/config"
	"bill-gateway-api/internal/dal"
	"bill-gateway-api/internal/dao"
	"bill-gateway-api/internal/handler"
	"bill-gateway-api/internal/health"
	"bill-gateway-api/internal/idgen"
	"bill-gateway-api/internal/logger"
	"bill-gateway-api/internal/mq"
	"bill-gateway-api/internal/notify"
	"bill-gateway-api/internal/service"
	"bill-gateway-api/internal/utils"
	"bill-gateway-api/internal/utils/timeutil"
)

func main() {
	// load config env
	config.Init()
	cfg := config.C
	appLog := logger.NewLogger(cfg.Log.Dir, "app", cfg.Log.Level)
	gwLog := logger.NewLogger(cfg.Log.Dir, "gateway", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// init infra
	dal.InitMainDB()
	if cfg.Cache.Driver == config.CacheDriverRedis {
		dal.InitRedis()
	}
	dal.InitRabbitMQ()
	defer dal.CloseRabbitMQ()

	// idgen
	idgen.Init(1)

	auditDao := dao.NewAuditDao(dal.MainDB)
	if err := auditDao.AutoMigrate(); err != nil {
		log.Fatalf("migrate audit tables failed: %v", err)
	}

	checks := map[string]handler.Check{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := dal.MainDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	var store cache.Store
	switch cfg.Cache.Driver {
	case config.CacheDriverMemory:
		ms := cache.NewMemoryStore().WithLogger(appLog)
		ms.StartSweeper(ctx, cfg.Cache.SweepInterval)
		store = ms
		appLog.Warn("cache driver is memory, tokens and billers are not shared across instances")
	default:
		store = cache.NewRedisStore(dal.RedisClient)
		checks["redis"] = func(ctx context.Context) error {
			return dal.RedisClient.Ping(ctx).Err()
		}
	}
	codec, err := utils.NewAESCodec(cfg.Gateway.EncryptKey, cfg.Gateway.EncryptIV)
	if err != nil {
		log.Fatalf("init gateway codec failed: %v", err)
	}
	httpClient := utils.NewHttpClient(utils.HttpClientOptions{
		Timeout:            cfg.Gateway.Timeout,
		MaxElapsed:         cfg.Gateway.MaxElapsed,
		InsecureSkipVerify: cfg.Gateway.InsecureSkipVerify,
		Retry: utils.RetryPolicy{
			MaxAttempts:     cfg.Gateway.Retry.Times,
			BackoffFactor:   cfg.Gateway.Retry.BackoffFactor,
			StatusForcelist: utils.DefaultRetryPolicy().StatusForcelist,
		},
	}, gwLog)

	channel := func() mq.Channel {
		if ch := dal.GetChannel(); ch != nil {
			return ch
		}
		return nil
	}
	gatewayHealth := health.NewGatewayHealthManager(store, cfg.Project.Name,
		&health.EWMAStrategy{Alpha: 0.1}, cfg.Gateway.HealthThreshold, 24*time.Hour, gwLog)

	gateway := service.NewGatewayService(service.GatewayDeps{
		Config:    cfg.Gateway,
		Project:   cfg.Project.Name,
		Tokens:    service.NewTokenService(cfg.Gateway, cfg.Project.Name, httpClient, store, gwLog),
		Codec:     codec,
		Http:      httpClient,
		Cache:     store,
		Audit:     auditDao,
		Publisher: mq.NewPublisher(channel, dal.ExchangeBillEvents, appLog),
		Alerter:   notify.NewTelegramNotifier(cfg.Notify, timeutil.LoadLocation(cfg.Gateway.TimeZone), appLog),
		Health:    gatewayHealth,
		Log:       gwLog,
	})

	// start consumers
	consumer := mq.NewStatusCheckConsumer(dal.QueueBillStatusCheck, gateway, channel, cfg.Gateway.MaxElapsed, appLog)
	go func() {
		for ctx.Err() == nil {
			if ch := dal.GetChannel(); ch != nil {
				if err := consumer.Start(ctx, ch); err != nil {
					appLog.WithError(err).Error("[MQ-StatusCheck] consumer stopped")
				}
			}
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}()

	// http server
	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(handler.Handlers{
		Biller: handler.NewBillerHandler(gateway),
		Bill:   handler.NewBillHandler(gateway, auditDao),
		Health: handler.NewHealthHandler(checks, gatewayHealth, service.GatewayOps),
	}, cfg.Security.InternalToken, appLog)
	// 设置可信代理 IP（如本地或内网）
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "192.168.0.0/16", "10.0.0.0/8"})

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infof("listening %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("http server shutdown failed")
	}
	appLog.Info("server stopped")
}
