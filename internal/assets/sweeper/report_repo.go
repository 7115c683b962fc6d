package sweeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix = "sweep:report:" // Report data: sweep:report:{report_id}
	latestReportKey = "sweep:latest"  // ID of the most recent report
	reportTTL       = 30 * 24 * time.Hour
)

var ErrNoReports = errors.New("no sweep reports")

// Report records the outcome of one orphan sweep: asset path prefixes present
// in the blob store with no project row referencing them.
type Report struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	ScannedPrefixes int       `json:"scanned_prefixes"`
	ReferencedPaths int       `json:"referenced_paths"`
	Orphans         []string  `json:"orphans"`
}

// ReportRepository keeps sweep reports in Redis with a TTL.
type ReportRepository struct {
	client *redis.Client
}

func NewReportRepository(client *redis.Client) *ReportRepository {
	return &ReportRepository{client: client}
}

// Save stores the report and points the latest-report key at it.
func (r *ReportRepository) Save(ctx context.Context, report *Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal sweep report: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.reportKey(report.ID), data, reportTTL)
	pipe.Set(ctx, latestReportKey, report.ID, reportTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save sweep report: %w", err)
	}
	return nil
}

// Get retrieves one report by ID.
func (r *ReportRepository) Get(ctx context.Context, id string) (*Report, error) {
	data, err := r.client.Get(ctx, r.reportKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNoReports
	}
	if err != nil {
		return nil, fmt.Errorf("get sweep report: %w", err)
	}

	var report Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("unmarshal sweep report: %w", err)
	}
	return &report, nil
}

// GetLatest retrieves the most recently saved report.
func (r *ReportRepository) GetLatest(ctx context.Context) (*Report, error) {
	id, err := r.client.Get(ctx, latestReportKey).Result()
	if err == redis.Nil {
		return nil, ErrNoReports
	}
	if err != nil {
		return nil, fmt.Errorf("get latest sweep report id: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *ReportRepository) reportKey(id string) string {
	return reportKeyPrefix + id
}
