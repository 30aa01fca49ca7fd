package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studio-data/internal/config"
	"studio-data/internal/database"
	httpapi "studio-data/internal/http"
	"studio-data/internal/logger"
	"studio-data/internal/repository"
	"studio-data/internal/service"
	"studio-data/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func runServe() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "studio-data")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	// 会话存储：Redis 不可用时退回内存 KV（仅限本地开发）
	var kv store.KV
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory session store", zap.Error(err))
		kv = store.NewMemoryKV()
	} else {
		kv = store.NewRedisKV(redisClient)
	}

	// 数据存储：DB 不可用时退回内存 repo，避免本地 `go run` 起不来
	var db *sql.DB
	var (
		defsRepo      repository.FieldDefinitionsRepository
		valuesRepo    repository.FieldValuesRepository
		leadsRepo     repository.LeadsRepository
		statusesRepo  repository.LeadStatusesRepository
		templatesRepo repository.MessageTemplatesRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for studio-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repos", zap.Error(err))
		}
	}
	if db != nil {
		defsRepo = repository.NewPostgresFieldDefinitionsRepository(db)
		valuesRepo = repository.NewPostgresFieldValuesRepository(db)
		leadsRepo = repository.NewPostgresLeadsRepository(db)
		statusesRepo = repository.NewPostgresLeadStatusesRepository(db)
		templatesRepo = repository.NewPostgresMessageTemplatesRepository(db)
	} else {
		defsRepo = repository.NewMemoryFieldDefinitionsRepository()
		valuesRepo = repository.NewMemoryFieldValuesRepository()
		leadsRepo = repository.NewMemoryLeadsRepository()
		statusesRepo = repository.NewMemoryLeadStatusesRepository()
		templatesRepo = repository.NewMemoryMessageTemplatesRepository()
	}

	translator := service.NewDefaultTranslator()
	notifier := service.NewLogNotifier(log)

	var gateway *service.GatewayClient
	if cfg.Gateway.BaseURL != "" {
		gateway = service.NewGatewayClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout, log)
	}

	formService := service.NewFormService(leadsRepo, statusesRepo, defsRepo, valuesRepo, notifier, translator, log)
	sessionService := service.NewSessionService(kv, defsRepo, valuesRepo, leadsRepo, statusesRepo,
		formService, cfg.Form.SessionTTL, cfg.Form.RefreshMinInterval, log)
	definitionService := service.NewDefinitionService(defsRepo, statusesRepo, log)
	leadService := service.NewLeadService(leadsRepo, valuesRepo, defsRepo, statusesRepo, log)
	messageService := service.NewMessageService(templatesRepo, leadsRepo, valuesRepo, statusesRepo, gateway, log)

	router := httpapi.NewRouter(log)
	router.RegisterAdminRoutes(
		httpapi.NewFieldDefinitionsHandler(definitionService, log),
		httpapi.NewLeadStatusesHandler(definitionService, log),
		httpapi.NewLeadsHandler(leadService, log),
	)
	router.RegisterFormRoutes(httpapi.NewFormSessionHandler(sessionService, log))
	router.RegisterMessageRoutes(httpapi.NewMessageTemplatesHandler(messageService, log))
	router.RegisterHealthz()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
