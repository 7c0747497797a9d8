package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"opsportal/internal/domain/assets"
	"opsportal/internal/domain/core"
	"opsportal/internal/platform/config"
	"opsportal/internal/platform/metrics"
)

const (
	JobAssetSync      = "asset_sync"
	JobAssetReminders = "asset_reminders"
)

type Service struct {
	DB      *pgxpool.Pool
	Cfg     config.Config
	Core    *core.Store
	Assets  *assets.Service
	Metrics *metrics.Collector
	queue   chan job
}

type job struct {
	Type   string
	UnitID string
	Run    func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, coreStore *core.Store, assetSvc *assets.Service, collector *metrics.Collector) *Service {
	return &Service{
		DB:      db,
		Cfg:     cfg,
		Core:    coreStore,
		Assets:  assetSvc,
		Metrics: collector,
		queue:   make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.AssetSyncInterval > 0 {
		go s.schedule(ctx, s.Cfg.AssetSyncInterval, s.enqueueSyncs)
	}
	if s.Cfg.ReminderInterval > 0 {
		go s.schedule(ctx, s.Cfg.ReminderInterval, s.enqueueReminders)
	}
}

func (s *Service) Enqueue(jobType, unitID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, UnitID: unitID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "unitId", unitID)
	}
}

// RunNow executes a job inline, still recording it in job_runs. Used by the
// admin endpoint that triggers a reminder pass on demand.
func (s *Service) RunNow(ctx context.Context, jobType, unitID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, UnitID: unitID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "unitId", j.UnitID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (unit_id, job_type, status)
    VALUES ($1,$2,'running')
    RETURNING id
  `, j.UnitID, j.Type).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration, enqueue func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue(ctx)
		}
	}
}

func (s *Service) enqueueSyncs(ctx context.Context) {
	units, err := s.Core.ListUnitIDs(ctx)
	if err != nil {
		slog.Warn("asset sync scheduler unit lookup failed", "err", err)
		return
	}
	for _, unitID := range units {
		unit := unitID
		s.Enqueue(JobAssetSync, unit, func(ctx context.Context) (any, error) {
			flipped, err := s.Assets.SyncDates(ctx, unit, time.Now())
			return map[string]any{"overdueMarked": flipped}, err
		})
	}
}

func (s *Service) enqueueReminders(ctx context.Context) {
	units, err := s.Core.ListUnitIDs(ctx)
	if err != nil {
		slog.Warn("reminder scheduler unit lookup failed", "err", err)
		return
	}
	policies := assets.DefaultPolicies()
	for _, unitID := range units {
		unit := unitID
		s.Enqueue(JobAssetReminders, unit, func(ctx context.Context) (any, error) {
			summary, err := s.Assets.RunReminders(ctx, unit, policies, time.Now())
			if err == nil && s.Metrics != nil {
				s.Metrics.RecordReminders(summary.Fired)
			}
			return summary, err
		})
	}
}
