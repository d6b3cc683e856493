// Package service orchestrates work-order operations: intake, status
// management, contractor administration and automation runs.
package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"propertyops_backend/internal/config"
	"propertyops_backend/internal/events"
	"propertyops_backend/internal/runlock"
	"propertyops_backend/internal/workorders/dedupe"
	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/engine"
	"propertyops_backend/internal/workorders/policy"
	"propertyops_backend/internal/workorders/repository"
	"propertyops_backend/internal/workorders/transport"
	"propertyops_backend/platform/apperr"
	"propertyops_backend/platform/logger"
	"propertyops_backend/platform/metrics"
)

// Archiver stores finished run reports outside the database. May be nil.
type Archiver interface {
	ArchiveReport(ctx context.Context, report *domain.RunReport, summary string) error
}

// Service provides work-order business operations
type Service struct {
	repo     *repository.Repository
	engine   *engine.Engine
	cfg      *config.Config
	rules    domain.RuleSet
	lock     *runlock.Lock
	bus      events.Bus
	metrics  *metrics.Metrics
	archiver Archiver
	log      *logger.Logger

	// runGroup collapses concurrent triggers within this process; the redis
	// lock covers triggers from other processes.
	runGroup singleflight.Group
}

// New creates a new work-orders service
func New(
	repo *repository.Repository,
	eng *engine.Engine,
	cfg *config.Config,
	rules domain.RuleSet,
	lock *runlock.Lock,
	bus events.Bus,
	m *metrics.Metrics,
	archiver Archiver,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		engine:   eng,
		cfg:      cfg,
		rules:    rules,
		lock:     lock,
		bus:      bus,
		metrics:  m,
		archiver: archiver,
		log:      log,
	}
}

// TriggerRun executes one automation run. Concurrent triggers inside the
// process share a single run; a run in another process surfaces as a conflict.
func (s *Service) TriggerRun(ctx context.Context, req transport.TriggerRunRequest) (transport.RunReportResponse, error) {
	mode := s.cfg.RunMode
	if req.Mode != "" {
		parsed, ok := domain.ParseRunMode(req.Mode)
		if !ok {
			return transport.RunReportResponse{}, apperr.BadRequest("invalid run mode")
		}
		mode = parsed
	}

	result, err, _ := s.runGroup.Do("automation-run", func() (interface{}, error) {
		return s.run(ctx, mode)
	})
	if err != nil {
		return transport.RunReportResponse{}, err
	}

	return result.(transport.RunReportResponse), nil
}

func (s *Service) run(ctx context.Context, mode domain.RunMode) (transport.RunReportResponse, error) {
	lockToken := uuid.NewString()
	if s.lock != nil {
		if err := s.lock.Acquire(ctx, lockToken); err != nil {
			return transport.RunReportResponse{}, err
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), lockToken); err != nil {
				s.log.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	contractors, err := s.repo.ListContractors(ctx)
	if err != nil {
		return transport.RunReportResponse{}, apperr.Wrap(apperr.KindInternal, "load contractor pool", err)
	}
	active, err := s.repo.ListByStatuses(ctx, []domain.Status{
		domain.StatusReported, domain.StatusClassified,
		domain.StatusContractorAssigned, domain.StatusInProgress,
	})
	if err != nil {
		return transport.RunReportResponse{}, apperr.Wrap(apperr.KindInternal, "load active work items", err)
	}

	engCfg := engine.Config{
		Mode: mode,
		Policy: policy.Config{
			AutoAssignThreshold:         s.cfg.AutoAssignThreshold,
			OwnerApprovalThresholdCents: s.cfg.OwnerApprovalThresholdCents,
			EmergencyAutoAssign:         s.cfg.EmergencyAutoAssign,
		},
		Rules:              s.rules,
		NotifyOnAssignment: s.cfg.NotifyOnAssignment,
	}

	report := s.engine.Run(ctx, engCfg, engine.Pools{
		Contractors: contractors,
		ActiveItems: active,
	})
	summary := engine.Summary(report)

	// The run itself succeeded at this point; everything below is recording.
	// Failures are logged and never turn a finished run into an error.
	persistCtx := context.WithoutCancel(ctx)
	s.recordMetrics(report)
	s.persistMerges(persistCtx, report)
	if err := s.repo.SaveRun(persistCtx, report, summary); err != nil {
		s.log.DatabaseError("save automation run", err)
	}
	s.publishRunEvents(persistCtx, report, summary)
	if s.archiver != nil {
		if err := s.archiver.ArchiveReport(persistCtx, report, summary); err != nil {
			s.log.Warn("failed to archive run report", "run_id", report.ID, "error", err)
		}
	}

	return transport.ToRunReportResponse(report, summary), nil
}

// persistMerges re-applies merge log entries against the stored work items.
// The engine merges into its in-memory pool; the durable record is written
// here. External merge targets have no row and are skipped.
func (s *Service) persistMerges(ctx context.Context, report *domain.RunReport) {
	for _, o := range report.Outcomes {
		if o.Outcome != domain.OutcomeMerged || o.MergedIntoID == nil {
			continue
		}
		existing, err := s.repo.GetWorkItem(ctx, *o.MergedIntoID)
		if err != nil {
			continue
		}
		dup, err := s.repo.GetWorkItem(ctx, o.WorkItemID)
		if err != nil {
			continue
		}
		dedupe.Merge(&existing, dup)
		if err := s.repo.SaveWorkItem(ctx, existing); err != nil {
			s.log.DatabaseError("persist merged work item", err)
		}
	}
}

func (s *Service) recordMetrics(report *domain.RunReport) {
	if s.metrics == nil {
		return
	}
	s.metrics.RunsTotal.Inc()
	s.metrics.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	s.metrics.ItemsProcessed.Add(float64(report.Processed()))
	for _, o := range report.Outcomes {
		s.metrics.OutcomesTotal.WithLabelValues(string(o.Outcome), string(o.Source)).Inc()
	}
}

func (s *Service) publishRunEvents(ctx context.Context, report *domain.RunReport, summary string) {
	for _, o := range report.Outcomes {
		switch o.Outcome {
		case domain.OutcomeAutoAssigned:
			var contractorID uuid.UUID
			if o.ContractorID != nil {
				contractorID = *o.ContractorID
			}
			s.bus.Publish(ctx, events.WorkOrderAutoAssigned{
				BaseEvent:       events.NewBaseEvent(),
				WorkItemID:      o.WorkItemID,
				PropertyID:      o.PropertyID,
				ContractorID:    contractorID,
				ContractorName:  o.ContractorName,
				Category:        string(o.Category),
				Urgency:         string(o.Urgency),
				FinalQuoteCents: o.FinalQuoteCents,
				Confidence:      o.Confidence,
			})
		case domain.OutcomeNeedsReview, domain.OutcomeOwnerApprovalNeeded:
			s.bus.Publish(ctx, events.ManualReviewRequired{
				BaseEvent:       events.NewBaseEvent(),
				WorkItemID:      o.WorkItemID,
				PropertyID:      o.PropertyID,
				Category:        string(o.Category),
				Outcome:         string(o.Outcome),
				Reason:          o.Reason,
				FinalQuoteCents: o.FinalQuoteCents,
			})
		case domain.OutcomeMerged:
			if o.MergedIntoID != nil {
				s.bus.Publish(ctx, events.WorkOrderMerged{
					BaseEvent:    events.NewBaseEvent(),
					WorkItemID:   o.WorkItemID,
					MergedIntoID: *o.MergedIntoID,
					PropertyID:   o.PropertyID,
					Category:     string(o.Category),
				})
			}
		}
	}

	s.bus.Publish(ctx, events.AutomationRunCompleted{
		BaseEvent:    events.NewBaseEvent(),
		RunID:        report.ID,
		Mode:         string(report.Mode),
		Processed:    report.Processed(),
		AutoAssigned: report.AutoAssigned(),
		ManualReview: report.ManualReviewNeeded(),
		Errors:       report.Errors(),
		Merged:       report.Merged(),
		ErrorNote:    report.ErrorNote,
		Summary:      summary,
	})
}

// GetRun retrieves a persisted run report
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (transport.RunReportResponse, error) {
	rec, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return transport.RunReportResponse{}, err
	}
	return transport.ToRunRecordResponse(*rec), nil
}

// ListRuns retrieves the most recent persisted runs
func (s *Service) ListRuns(ctx context.Context, limit int) ([]transport.RunReportResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	records, err := s.repo.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.RunReportResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, transport.ToRunRecordResponse(rec))
	}
	return out, nil
}

// LockHolder reports the id of the run currently holding the distributed run
// lock, if any.
func (s *Service) LockHolder(ctx context.Context) (string, bool, error) {
	if s.lock == nil {
		return "", false, nil
	}
	return s.lock.Holder(ctx)
}
