package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/campusbridge/projects-backend/config"
	"github.com/campusbridge/projects-backend/internal/assets"
	"github.com/campusbridge/projects-backend/internal/assets/sweeper"
	"github.com/campusbridge/projects-backend/internal/bootstrap"
	"github.com/campusbridge/projects-backend/internal/projects/repository"
	"github.com/campusbridge/projects-backend/internal/storage/postgres"
)

// RunSweep executes one orphan sweep and prints the result. Meant for
// operators; the api process runs the same sweep on a schedule.
func RunSweep() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		logger.Fatal("database pool failed", zap.Error(err))
	}
	defer pool.Close()

	blobClient, err := assets.NewClient(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("blob store client failed", zap.Error(err))
	}
	gateway := assets.NewGateway(blobClient, cfg.Storage.Bucket, logger)

	var reports *sweeper.ReportRepository
	if rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis); err != nil {
		logger.Warn("redis unavailable, report will not be stored", zap.Error(err))
	} else {
		reports = sweeper.NewReportRepository(rdb)
	}

	sw := sweeper.New(gateway, repository.NewRepo(pool), reports, logger)

	report, err := sw.Run(ctx)
	if err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}

	fmt.Printf("scanned %d prefixes, %d referenced, %d orphaned\n",
		report.ScannedPrefixes, report.ReferencedPaths, len(report.Orphans))
	for _, o := range report.Orphans {
		fmt.Println(o)
	}
}
