// Package engine drives one end-to-end automation pass: fetch pending work
// items from the enabled sources, triage, score, price and route each one, and
// aggregate the per-item outcomes into a run report.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/dedupe"
	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/estimate"
	"propertyops_backend/internal/workorders/policy"
	"propertyops_backend/internal/workorders/scoring"
	"propertyops_backend/internal/workorders/source"
	"propertyops_backend/internal/workorders/triage"
	"propertyops_backend/platform/logger"
)

// Notifier delivers assignment notifications. Calls are best-effort from the
// engine's perspective: a failure is logged and never rolls back the
// assignment.
type Notifier interface {
	NotifyAssigned(ctx context.Context, item domain.WorkItem, contractor domain.Contractor, estimatedCostCents, finalQuoteCents int64) error
}

// Config is the per-run configuration. Rules are an immutable value captured
// at run start; a rule update elsewhere produces a new RuleSet and never
// affects a run already in flight.
type Config struct {
	Mode               domain.RunMode
	Policy             policy.Config
	Rules              domain.RuleSet
	NotifyOnAssignment bool
}

// Pools is the run-start snapshot of the data the run works against.
// ActiveItems feeds both the duplicate detector and the contractor workload
// snapshot; it is read once here and never re-queried mid-run.
type Pools struct {
	Contractors []domain.Contractor
	ActiveItems []domain.WorkItem
}

// Engine orchestrates automation runs. It is safe to reuse across runs; all
// per-run state lives in Run's locals.
type Engine struct {
	native   source.Adapter
	external source.Adapter // nil when no external source is configured
	triage   *triage.Service
	notifier Notifier // nil disables notifications
	log      *logger.Logger
}

func New(native, external source.Adapter, triageSvc *triage.Service, notifier Notifier, log *logger.Logger) *Engine {
	return &Engine{
		native:   native,
		external: external,
		triage:   triageSvc,
		notifier: notifier,
		log:      log,
	}
}

// Run executes one automation pass and always returns a finished report, even
// when every source is unavailable (processed stays 0 and the report carries a
// run-level error note). Cancellation is observed between items: the in-flight
// item completes, no new item starts, and the partial report is returned.
func (e *Engine) Run(ctx context.Context, cfg Config, pools Pools) *domain.RunReport {
	report := domain.NewRunReport(cfg.Mode)
	defer report.Finish()

	log := e.log.WithRunID(report.ID.String())
	log.Info("automation run started", "mode", cfg.Mode,
		"contractors", len(pools.Contractors), "active_items", len(pools.ActiveItems))

	snapshot := scoring.NewSnapshot(pools.ActiveItems)
	pool := make([]domain.WorkItem, len(pools.ActiveItems))
	copy(pool, pools.ActiveItems)

	adapters := e.adaptersFor(cfg.Mode)
	var notes []string
	for _, adapter := range adapters {
		if ctx.Err() != nil {
			notes = append(notes, fmt.Sprintf("run cancelled: %v", ctx.Err()))
			break
		}
		items, err := adapter.FetchPending(ctx)
		if err != nil {
			log.Error("source adapter unavailable", "source", adapter.Name(), "error", err)
			notes = append(notes, fmt.Sprintf("source %s unavailable: %v", adapter.Name(), err))
			continue
		}
		cancelled := false
		for _, item := range items {
			if ctx.Err() != nil {
				notes = append(notes, fmt.Sprintf("run cancelled: %v", ctx.Err()))
				cancelled = true
				break
			}
			outcome := e.processItem(ctx, cfg, adapter, item, &pool, snapshot, pools.Contractors)
			report.Append(outcome)
			log.RunOutcome(report.ID.String(), item.ID.String(), string(outcome.Outcome))
		}
		if cancelled {
			break
		}
	}

	if len(notes) > 0 {
		report.SetErrorNote(strings.Join(notes, "; "))
	}
	log.Info("automation run finished",
		"processed", report.Processed(), "auto_assigned", report.AutoAssigned(),
		"manual_review", report.ManualReviewNeeded(), "errors", report.Errors(),
		"merged", report.Merged())
	return report
}

func (e *Engine) adaptersFor(mode domain.RunMode) []source.Adapter {
	var adapters []source.Adapter
	if mode == domain.RunModeNativeOnly || mode == domain.RunModeHybrid {
		adapters = append(adapters, e.native)
	}
	if mode == domain.RunModeExternalOnly || mode == domain.RunModeHybrid {
		if e.external != nil {
			adapters = append(adapters, e.external)
		}
	}
	return adapters
}

// processItem runs the full pipeline for one work item. Any panic is caught
// and recorded as an Error outcome for this item only; the run continues with
// the next item.
func (e *Engine) processItem(ctx context.Context, cfg Config, adapter source.Adapter, item domain.WorkItem, pool *[]domain.WorkItem, snapshot *scoring.Snapshot, contractors []domain.Contractor) (outcome domain.ItemOutcome) {
	outcome = domain.ItemOutcome{WorkItemID: item.ID, Source: adapter.Name(), PropertyID: item.PropertyID}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic while processing work item", "work_item_id", item.ID, "panic", r)
			outcome.Outcome = domain.OutcomeError
			outcome.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	// Items arrive unclassified, so triage runs before the duplicate check to
	// produce the category the detector keys on.
	tri := e.triageItem(ctx, item, cfg.Rules)
	outcome.Category = tri.Category
	outcome.Urgency = tri.Urgency

	item.Category = tri.Category
	if existing, ok := dedupe.FindOpenDuplicate(item, *pool); ok {
		dedupe.Merge(existing, item)
		outcome.Outcome = domain.OutcomeMerged
		outcome.MergedIntoID = &existing.ID
		outcome.Reason = fmt.Sprintf("duplicate of open work item %s", existing.ID)
		return outcome
	}

	// The dedupe pool keeps run-start statuses so a second report in the same
	// batch still merges into this one after it moves on.
	upsertPool(pool, item)

	if item.Status == domain.StatusReported {
		if err := adapter.UpdateStatus(ctx, item.ID, domain.StatusClassified); err != nil {
			e.log.AdapterError(string(adapter.Name()), "update status", err)
		}
		item.Status = domain.StatusClassified
	}

	rule, ok := cfg.Rules.Rule(tri.Category)
	if !ok {
		outcome.Outcome = domain.OutcomeError
		outcome.Reason = fmt.Sprintf("no vendor rule for category %q", tri.Category)
		return outcome
	}
	quote := estimate.Estimate(rule, tri.Urgency)
	candidates := scoring.Rank(tri.Category, contractors, snapshot)

	decision, result, reason := policy.Evaluate(tri, candidates, quote, cfg.Policy)
	if result != nil {
		contractorID := result.ContractorID
		outcome.ContractorID = &contractorID
		outcome.ContractorName = result.ContractorName
		outcome.FinalQuoteCents = result.FinalQuoteCents
		outcome.Confidence = result.Confidence
	}

	switch decision {
	case policy.DecisionAutoAssign:
		if err := adapter.Assign(ctx, item.ID, result.ContractorID, result.Reasoning); err != nil {
			e.log.AdapterError(string(adapter.Name()), "assign", err)
			outcome.Outcome = domain.OutcomeError
			outcome.Reason = fmt.Sprintf("assignment failed: %v", err)
			return outcome
		}
		// The assignment stands even if the status write fails; the status
		// converges on the next run.
		if err := adapter.UpdateStatus(ctx, item.ID, domain.StatusContractorAssigned); err != nil {
			e.log.AdapterError(string(adapter.Name()), "update status", err)
		}
		snapshot.RecordAssignment(result.ContractorID)
		e.notifyAssigned(ctx, cfg, item, result, contractors, quote)
		outcome.Outcome = domain.OutcomeAutoAssigned
		outcome.Reason = result.Reasoning

	case policy.DecisionOwnerApprovalNeeded:
		outcome.Outcome = domain.OutcomeOwnerApprovalNeeded
		outcome.Reason = reason

	default:
		outcome.Outcome = domain.OutcomeNeedsReview
		outcome.Reason = reason
	}
	return outcome
}

// triageItem classifies one item. A category already present on the item
// (e.g. set by the external system) is used as the classifier hint; otherwise
// the triage service consults the AI classifier with keyword fallback.
func (e *Engine) triageItem(ctx context.Context, item domain.WorkItem, rules domain.RuleSet) domain.TriageResult {
	if item.Category != "" {
		return triage.Classify(item.Description, item.Category, rules)
	}
	return e.triage.Triage(ctx, item.Description, rules)
}

func (e *Engine) notifyAssigned(ctx context.Context, cfg Config, item domain.WorkItem, result *domain.AssignmentResult, contractors []domain.Contractor, quote estimate.Quote) {
	if !cfg.NotifyOnAssignment || e.notifier == nil {
		return
	}
	contractor, ok := findContractor(contractors, result.ContractorID)
	if !ok {
		return
	}
	if err := e.notifier.NotifyAssigned(ctx, item, contractor, quote.EstimatedCostCents, quote.FinalQuoteCents); err != nil {
		e.log.Warn("assignment notification failed",
			"work_item_id", item.ID, "contractor_id", contractor.ID, "error", err)
	}
}

func findContractor(pool []domain.Contractor, id uuid.UUID) (domain.Contractor, bool) {
	for _, c := range pool {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contractor{}, false
}

// upsertPool writes the classified category back to the item's pool entry, or
// adds the item when the caller's pool did not contain it (external items).
// The pool entry keeps its run-start status.
func upsertPool(pool *[]domain.WorkItem, item domain.WorkItem) {
	for i := range *pool {
		if (*pool)[i].ID == item.ID {
			(*pool)[i].Category = item.Category
			return
		}
	}
	*pool = append(*pool, item)
}
