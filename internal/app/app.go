// Package app wires repositories, services and the expiry scheduler on top
// of an open database so the api and cron-worker binaries share one graph.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carins/carins-backend/internal/cars"
	"github.com/carins/carins-backend/internal/claims"
	"github.com/carins/carins-backend/internal/cron"
	"github.com/carins/carins-backend/internal/expiry"
	"github.com/carins/carins-backend/internal/owners"
	"github.com/carins/carins-backend/internal/policies"
	"github.com/carins/carins-backend/internal/validity"
	"github.com/carins/carins-backend/pkg/config"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/metrics"
	"github.com/carins/carins-backend/pkg/redis"
)

// Components is the assembled domain layer.
type Components struct {
	Cars     cars.Service
	Owners   owners.Service
	Policies policies.Service
	Claims   claims.Service
	Checker  *validity.Checker
	Detector *expiry.Detector
}

// Build assembles every service over dbClient. reg receives the expiry
// counters and may be nil.
func Build(logg *logger.Logger, dbClient *db.Client, reg prometheus.Registerer) (*Components, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("database client required")
	}
	conn := dbClient.DB()

	carRepo := cars.NewRepository(conn)
	ownerRepo := owners.NewRepository(conn)
	policyRepo := policies.NewRepository(conn)

	carSvc, err := cars.NewService(carRepo, ownerRepo)
	if err != nil {
		return nil, fmt.Errorf("car service: %w", err)
	}
	ownerSvc, err := owners.NewService(ownerRepo)
	if err != nil {
		return nil, fmt.Errorf("owner service: %w", err)
	}
	policySvc, err := policies.NewService(policyRepo, carRepo)
	if err != nil {
		return nil, fmt.Errorf("policy service: %w", err)
	}
	claimSvc, err := claims.NewService(claims.NewRepository(conn), carRepo)
	if err != nil {
		return nil, fmt.Errorf("claim service: %w", err)
	}
	checker, err := validity.NewChecker(policyRepo, carRepo)
	if err != nil {
		return nil, fmt.Errorf("validity checker: %w", err)
	}

	params := expiry.DetectorParams{
		Logger:   logg,
		Policies: policyRepo,
		Log:      expiry.NewLogRepository(conn),
	}
	if reg != nil {
		params.Metrics = metrics.NewExpiryMetrics(reg)
	}
	detector, err := expiry.NewDetector(params)
	if err != nil {
		return nil, fmt.Errorf("expiry detector: %w", err)
	}

	return &Components{
		Cars:     carSvc,
		Owners:   ownerSvc,
		Policies: policySvc,
		Claims:   claimSvc,
		Checker:  checker,
		Detector: detector,
	}, nil
}

// ConnectRedis opens the redis client when the cron lock needs it. It
// returns nil without error otherwise.
func ConnectRedis(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*redis.Client, error) {
	if !cfg.Cron.LockEnabled {
		return nil, nil
	}
	return redis.New(ctx, cfg.Redis, logg)
}

// NewScheduler builds the daily scheduler running the expiry job. A nil
// redisClient runs it without a cross-replica lock.
func NewScheduler(cfg *config.Config, logg *logger.Logger, detector *expiry.Detector, redisClient *redis.Client, reg prometheus.Registerer) (*cron.Service, error) {
	offset, err := cfg.Cron.DailyOffset()
	if err != nil {
		return nil, err
	}

	job, err := cron.NewExpiryJob(detector)
	if err != nil {
		return nil, err
	}
	registry := cron.NewRegistry()
	if err := registry.Register(job); err != nil {
		return nil, err
	}

	params := cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		RunAt:      offset,
		RunOnStart: cfg.Cron.RunOnStart,
	}
	if reg != nil {
		params.Metrics = metrics.NewCronJobMetrics(reg)
	}
	if redisClient != nil {
		lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.ExpiryJobName), cfg.Cron.LockTTL)
		if err != nil {
			return nil, err
		}
		params.Lock = lock
	}
	return cron.NewService(params)
}

// ReadyChecks lists the dependencies probed by /health/ready.
func ReadyChecks(dbClient *db.Client, redisClient *redis.Client) map[string]db.Pinger {
	checks := map[string]db.Pinger{"database": dbClient}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	return checks
}
