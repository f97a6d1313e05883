package main

import (
	"context"
	"database/sql"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/clock"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/config"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/engine"
	kafkaevents "github.com/sheikh-saqib/agent-earnings-engine/internal/events/kafka"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/events/noop"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/handlers"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/logging"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/middleware"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/storage/memory"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	production := cfg.Env == "production"
	logger, err := logging.New(production)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	stores, closeDB, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal("init storage", zap.Error(err))
	}
	defer closeDB()

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafkaevents.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		publisher = noop.NewPublisher()
		logger.Info("no kafka brokers configured, events are dropped")
	}

	eng := engine.New(cfg, stores, publisher, logger, clock.System(cfg.Location))
	h := handlers.New(eng, logger)

	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", middleware.Auth(cfg.JWTSecret))
	{
		api.GET("/accounts/:id/balances", h.GetBalances)
		api.GET("/accounts/:id/balance", h.GetBalance)
		api.GET("/accounts/:id/entries", h.ListEntries)

		api.POST("/packages", h.OpenPackage)
		api.GET("/packages", h.ListPackages)
		api.GET("/packages/:id", h.GetPackage)
		api.POST("/packages/:id/claim", h.ClaimPackage)

		api.POST("/clicks/activate", h.ActivateClickTask)
		api.POST("/clicks", h.RecordClick)

		api.POST("/withdrawals", h.RequestWithdrawal)
		api.GET("/withdrawals", h.ListWithdrawals)
	}

	admin := api.Group("/admin", middleware.RequireAdmin())
	{
		admin.POST("/accounts", h.CreateAccount)
		admin.GET("/accounts/:id", h.GetAccount)
		admin.POST("/accounts/:id/deactivate", h.DeactivateAccount)
		admin.POST("/withdrawals/:id/decide", h.DecideWithdrawal)
		admin.POST("/entries/:id/reverse", h.ReverseEntry)
	}

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildStores(cfg *config.Config, logger *zap.Logger) (engine.Stores, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no DATABASE_URL configured, using in-memory storage")
		store := memory.NewStore()
		return engine.Stores{
			Ledger:      store,
			Accounts:    store,
			Packages:    store,
			Withdrawals: store,
		}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return engine.Stores{}, nil, err
	}
	if err := db.Ping(); err != nil {
		return engine.Stores{}, nil, err
	}

	store := postgres.NewStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		return engine.Stores{}, nil, err
	}
	logger.Info("connected to postgres")

	return engine.Stores{
		Ledger:      store,
		Accounts:    store,
		Packages:    store,
		Withdrawals: store,
	}, func() { db.Close() }, nil
}
