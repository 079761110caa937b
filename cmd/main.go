package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trolley-monitor/internal/config"
	"trolley-monitor/internal/infrastructure/cache"
	"trolley-monitor/internal/infrastructure/database/postgres"
	"trolley-monitor/internal/logger"
	"trolley-monitor/internal/telemetry"
	"trolley-monitor/internal/usecase/rental"
	pkgmqtt "trolley-monitor/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting trolley monitor",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the alert dedup falls through to the
	// database constraint and the sweep lock stays in-process.
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		redisCache, err = cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				logger.Error("Failed to close redis connection", zap.Error(err))
			}
		}()
		logger.Info("Redis connection established", zap.String("addr", cfg.Redis.Addr))
	}

	trolleyRepo := postgres.NewTrolleyRepository(db)
	storeRepo := postgres.NewStoreRepository(db)
	positionRepo := postgres.NewPositionRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	loyaltyRepo := postgres.NewLoyaltyRepository(db)

	var deduper telemetry.Deduper
	if redisCache != nil {
		deduper = redisCache
	}

	alertManager := telemetry.NewAlertManager(alertRepo, deduper, logger.WithComponent("alerts"))
	processor := telemetry.NewProcessor(
		trolleyRepo, storeRepo, positionRepo, alertManager,
		telemetry.ProcessorOptions{
			BatchWorkers:    cfg.Telemetry.BatchWorkers,
			LowBatteryLevel: cfg.Telemetry.LowBatteryLevel,
		},
		logger.WithComponent("processor"),
	)

	if cfg.MQTT.Broker != "" {
		ingestion, err := telemetry.NewMQTTIngestionClient(&telemetry.MQTTIngestionConfig{
			ClientConfig: &pkgmqtt.Config{
				Broker:               cfg.MQTT.Broker,
				ClientID:             cfg.MQTT.ClientID,
				Username:             cfg.MQTT.Username,
				Password:             cfg.MQTT.Password,
				CleanSession:         true,
				KeepAlive:            30,
				ConnectTimeout:       10,
				AutoReconnect:        true,
				MaxReconnectInterval: time.Minute,
			},
			PositionTopic: cfg.MQTT.PositionTopic,
			QoS:           byte(cfg.MQTT.QoS),
		}, processor, logger.WithComponent("mqtt-ingestion"))
		if err != nil {
			logger.Fatal("Failed to build MQTT ingestion client", zap.Error(err))
		}
		if err := ingestion.Start(); err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
		defer ingestion.Stop()
	} else {
		logger.Warn("MQTT broker not configured, telemetry ingestion disabled")
	}

	var locker rental.SweepLocker
	if redisCache != nil {
		locker = cache.NewSweepLock(redisCache, time.Duration(cfg.Escalator.SweepLockTTLSecs)*time.Second)
	}

	escalator := rental.NewEscalator(
		assignmentRepo, loyaltyRepo, alertManager, locker,
		rental.EscalatorOptions{
			UnreturnedAfter: time.Duration(cfg.Escalator.UnreturnedDays) * 24 * time.Hour,
			BlockAtOverdue:  cfg.Escalator.BlockAtOverdue,
			CriticalAtHours: cfg.Escalator.CriticalAtHours,
		},
		logger.WithComponent("escalator"),
	)
	go escalator.Run(ctx, cfg.Escalator.SweepInterval)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	metrics := processor.Metrics()
	logger.Info("Final telemetry metrics",
		zap.Int64("samples_processed", metrics.SamplesProcessed),
		zap.Int64("samples_failed", metrics.SamplesFailed),
		zap.Int64("breaches_detected", metrics.BreachesDetected),
		zap.Int64("reentries_detected", metrics.ReentriesDetected),
	)
}
