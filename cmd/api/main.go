package main

import (
	"context"
	"log"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusbridge/projects-backend/config"
	"github.com/campusbridge/projects-backend/internal/assets"
	"github.com/campusbridge/projects-backend/internal/assets/sweeper"
	"github.com/campusbridge/projects-backend/internal/auth"
	"github.com/campusbridge/projects-backend/internal/bootstrap"
	"github.com/campusbridge/projects-backend/internal/projects/repository"
	"github.com/campusbridge/projects-backend/internal/projects/service"
	"github.com/campusbridge/projects-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.App.Environment)
	defer func() { _ = logger.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	// Migrations run over a plain database/sql handle; request traffic uses
	// the pgx pool opened below.
	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := bootstrap.RunMigrations(sqlDB, "migrations", logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	_ = sqlDB.Close()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		logger.Fatal("database pool failed", zap.Error(err))
	}
	defer pool.Close()

	var rdb *redis.Client
	if rdb, err = bootstrap.OpenRedis(ctx, cfg.Redis); err != nil {
		logger.Warn("redis unavailable, sweep reports disabled", zap.Error(err))
		rdb = nil
	}

	var authClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		authClient, err = auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			logger.Fatal("firebase init failed", zap.Error(err))
		}
	} else {
		logger.Warn("firebase credentials not configured, using header identity")
	}

	blobClient, err := assets.NewClient(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("blob store client failed", zap.Error(err))
	}
	gateway := assets.NewGateway(blobClient, cfg.Storage.Bucket, logger)

	repo := repository.NewRepo(pool)
	svc := service.NewProjectService(repo, gateway, logger)

	if cfg.Sweep.Enabled && rdb != nil {
		sw := sweeper.New(gateway, repo, sweeper.NewReportRepository(rdb), logger)
		sched := sweeper.NewScheduler(sw, cfg.Sweep.Schedule, logger)
		sched.Start()
		defer sched.Stop()
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "projects-backend",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.App.CORSOrigins,
		DB:          pool,
		Redis:       rdb,
		AuthClient:  authClient,
		Projects:    svc,
		Log:         logger,
	})

	logger.Info("listening", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "production" {
		l, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("logger: %v", err)
		}
		return l
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return l
}
