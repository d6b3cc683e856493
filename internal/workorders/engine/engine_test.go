package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/policy"
	"propertyops_backend/internal/workorders/source"
	"propertyops_backend/internal/workorders/triage"
	"propertyops_backend/platform/logger"
)

type stubClassifier struct {
	category string
	panicMsg string
}

func (s *stubClassifier) Classify(ctx context.Context, description string) (triage.Classification, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return triage.Classification{Category: s.category}, nil
}

type notifyCall struct {
	workItemID   uuid.UUID
	contractorID uuid.UUID
	finalQuote   int64
}

type stubNotifier struct {
	calls    []notifyCall
	err      error
	onNotify func()
}

func (s *stubNotifier) NotifyAssigned(ctx context.Context, item domain.WorkItem, contractor domain.Contractor, estimatedCostCents, finalQuoteCents int64) error {
	s.calls = append(s.calls, notifyCall{workItemID: item.ID, contractorID: contractor.ID, finalQuote: finalQuoteCents})
	if s.onNotify != nil {
		s.onNotify()
	}
	return s.err
}

func contractor(name, specialty string, rating float64) domain.Contractor {
	return domain.Contractor{
		ID:           uuid.New(),
		Name:         name,
		Specialties:  []string{specialty},
		Rating:       rating,
		Availability: domain.AvailabilityAvailable,
	}
}

func pendingItem(property, description string) domain.WorkItem {
	return domain.WorkItem{
		ID:          uuid.New(),
		Source:      domain.SourceNative,
		PropertyID:  property,
		Description: description,
		Status:      domain.StatusReported,
	}
}

func baseConfig(mode domain.RunMode) Config {
	return Config{
		Mode: mode,
		Policy: policy.Config{
			AutoAssignThreshold:         70,
			OwnerApprovalThresholdCents: 300000, // $3000
			EmergencyAutoAssign:         true,
		},
		Rules:              domain.DefaultRules(),
		NotifyOnAssignment: true,
	}
}

func newEngine(native, external source.Adapter, classifier triage.Classifier, notifier Notifier) *Engine {
	log := logger.New("test")
	return New(native, external, triage.NewService(classifier, log), notifier, log)
}

func TestRunEmergencyAutoAssignsAndNotifies(t *testing.T) {
	// "Gas leak smell near the furnace": emergency keyword match, category
	// from the external classifier.
	item := pendingItem("P1", "Gas leak smell near the furnace")
	native := source.NewFake(domain.SourceNative, item)
	hvac := contractor("Summit Climate Control", "HVAC", 4.5)
	notifier := &stubNotifier{}

	eng := newEngine(native, nil, &stubClassifier{category: "HVAC"}, notifier)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{hvac},
	})

	if report.Processed() != 1 || report.AutoAssigned() != 1 {
		t.Fatalf("expected 1 processed, 1 auto-assigned; got %d/%d", report.Processed(), report.AutoAssigned())
	}
	outcome := report.Outcomes[0]
	if outcome.Category != "HVAC" || outcome.Urgency != domain.UrgencyEmergency {
		t.Fatalf("expected HVAC/Emergency triage, got %s/%s", outcome.Category, outcome.Urgency)
	}
	if outcome.Confidence < 80 {
		t.Fatalf("expected confidence >= 80, got %d", outcome.Confidence)
	}

	if len(native.Assignments) != 1 || native.Assignments[0].ContractorID != hvac.ID {
		t.Fatalf("expected one assignment to %s", hvac.Name)
	}
	updated, _ := native.Item(item.ID)
	if updated.Status != domain.StatusContractorAssigned {
		t.Fatalf("expected ContractorAssigned, got %s", updated.Status)
	}
	if len(notifier.calls) != 1 || notifier.calls[0].contractorID != hvac.ID {
		t.Fatalf("expected one notification for %s", hvac.Name)
	}
}

func TestRunCostGateHoldsEmergencyForOwnerApproval(t *testing.T) {
	// Emergency HVAC quote lands at $2250, over a $1000 ceiling.
	item := pendingItem("P1", "Gas leak smell near the furnace")
	native := source.NewFake(domain.SourceNative, item)
	notifier := &stubNotifier{}

	cfg := baseConfig(domain.RunModeNativeOnly)
	cfg.Policy.OwnerApprovalThresholdCents = 100000

	eng := newEngine(native, nil, &stubClassifier{category: "HVAC"}, notifier)
	report := eng.Run(context.Background(), cfg, Pools{
		Contractors: []domain.Contractor{contractor("Summit Climate Control", "HVAC", 4.5)},
	})

	if report.Outcomes[0].Outcome != domain.OutcomeOwnerApprovalNeeded {
		t.Fatalf("expected OwnerApprovalNeeded, got %s", report.Outcomes[0].Outcome)
	}
	if len(native.Assignments) != 0 {
		t.Fatalf("expected no assignment while awaiting owner approval")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notification while awaiting owner approval")
	}
	updated, _ := native.Item(item.ID)
	if updated.Status != domain.StatusClassified {
		t.Fatalf("expected item left at Classified, got %s", updated.Status)
	}
}

func TestRunNoContractorNeedsReview(t *testing.T) {
	item := pendingItem("P2", "Outlet sparks when anything is plugged in")
	native := source.NewFake(domain.SourceNative, item)

	// Only a plumber in the pool; no electrical specialty matches.
	eng := newEngine(native, nil, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{contractor("Drainmasters", "Plumbing", 4.9)},
	})

	outcome := report.Outcomes[0]
	if outcome.Outcome != domain.OutcomeNeedsReview {
		t.Fatalf("expected NeedsReview, got %s", outcome.Outcome)
	}
	if outcome.Reason != policy.ReasonNoContractor {
		t.Fatalf("expected reason %q, got %q", policy.ReasonNoContractor, outcome.Reason)
	}
}

func TestRunMergesDuplicateInSameBatch(t *testing.T) {
	first := pendingItem("P1", "Leaking pipe under the kitchen sink")
	second := pendingItem("P1", "Water leak under the sink is getting worse")
	native := source.NewFake(domain.SourceNative, first, second)

	eng := newEngine(native, nil, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{contractor("Drainmasters", "Plumbing", 4.9)},
	})

	if report.Processed() != 1 {
		t.Fatalf("expected 1 net new item processed, got %d", report.Processed())
	}
	if report.Merged() != 1 {
		t.Fatalf("expected 1 merged duplicate, got %d", report.Merged())
	}
	mergedOutcome := report.Outcomes[1]
	if mergedOutcome.Outcome != domain.OutcomeMerged {
		t.Fatalf("expected second item merged, got %s", mergedOutcome.Outcome)
	}
	if mergedOutcome.MergedIntoID == nil || *mergedOutcome.MergedIntoID != first.ID {
		t.Fatalf("expected merge into %s", first.ID)
	}
	if len(native.Assignments) != 1 {
		t.Fatalf("expected a single dispatch for the duplicated issue, got %d", len(native.Assignments))
	}
}

func TestRunCountInvariantHolds(t *testing.T) {
	items := []domain.WorkItem{
		pendingItem("P1", "Gas leak smell near the furnace"),                // assigned
		pendingItem("P2", "Leaking pipe under the bathroom sink"),           // assigned
		pendingItem("P2", "Still dripping from the same bathroom pipe"),     // merged
		pendingItem("P3", "Outlet sparks when anything is plugged in"),      // needs review, no electrician
		pendingItem("P4", "Dishwasher stopped mid cycle, not urgent at all"), // appliance
	}
	native := source.NewFake(domain.SourceNative, items...)

	eng := newEngine(native, nil, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{
			contractor("Summit Climate Control", "HVAC", 4.5),
			contractor("Drainmasters", "Plumbing", 4.9),
			contractor("Fix-It Appliance Co", "Appliance Repair", 4.2),
		},
	})

	if report.Processed() != len(items)-report.Merged() {
		t.Fatalf("processed %d != %d items - %d merged", report.Processed(), len(items), report.Merged())
	}
	sum := report.AutoAssigned() + report.ManualReviewNeeded() + report.Errors()
	if sum != report.Processed() {
		t.Fatalf("autoAssigned+manualReview+errors = %d, processed = %d", sum, report.Processed())
	}
}

func TestRunHybridTagsOutcomesBySource(t *testing.T) {
	native := source.NewFake(domain.SourceNative, pendingItem("P1", "Leaking pipe under the sink"))
	externalItem := pendingItem("P9", "Mice in the basement again")
	externalItem.Source = domain.SourceExternal
	external := source.NewFake(domain.SourceExternal, externalItem)

	eng := newEngine(native, external, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeHybrid), Pools{
		Contractors: []domain.Contractor{
			contractor("Drainmasters", "Plumbing", 4.9),
			contractor("Shield Pest Control", "Pest Control", 4.0),
		},
	})

	if len(report.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(report.Outcomes))
	}
	if report.Outcomes[0].Source != domain.SourceNative || report.Outcomes[1].Source != domain.SourceExternal {
		t.Fatalf("expected native pass before external pass, got %s then %s",
			report.Outcomes[0].Source, report.Outcomes[1].Source)
	}
}

func TestRunAdapterUnavailableYieldsEmptyReportWithNote(t *testing.T) {
	native := source.NewFake(domain.SourceNative)
	native.FetchErr = errors.New("connection refused")

	eng := newEngine(native, nil, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{})

	if report.Processed() != 0 {
		t.Fatalf("expected processed = 0, got %d", report.Processed())
	}
	if report.ErrorNote == "" || !strings.Contains(report.ErrorNote, "native") {
		t.Fatalf("expected run-level error note naming the source, got %q", report.ErrorNote)
	}
	if !report.Finished() {
		t.Fatalf("expected a finished report even with no reachable source")
	}
}

func TestRunAssignFailureRecordsErrorAndContinues(t *testing.T) {
	items := []domain.WorkItem{
		pendingItem("P1", "Leaking pipe under the sink"),
		pendingItem("P2", "Mice in the basement"),
	}
	native := source.NewFake(domain.SourceNative, items...)
	native.AssignErr = errors.New("write timeout")

	eng := newEngine(native, nil, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{
			contractor("Drainmasters", "Plumbing", 4.9),
			contractor("Shield Pest Control", "Pest Control", 4.0),
		},
	})

	if report.Errors() != 2 {
		t.Fatalf("expected both assignments to record Error outcomes, got %d", report.Errors())
	}
	if report.Processed() != 2 {
		t.Fatalf("expected the run to continue past the first failure, processed %d", report.Processed())
	}
}

func TestRunPanicIsScopedToOneItem(t *testing.T) {
	items := []domain.WorkItem{
		pendingItem("P1", "Something strange in the attic"),
		pendingItem("P2", "Leaking pipe under the sink"),
	}
	native := source.NewFake(domain.SourceNative, items...)

	eng := newEngine(native, nil, &stubClassifier{panicMsg: "classifier blew up"}, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{contractor("Drainmasters", "Plumbing", 4.9)},
	})

	if report.Errors() == 0 {
		t.Fatalf("expected at least one Error outcome from the panicking classifier")
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("expected the run to survive the panic and process both items, got %d outcomes", len(report.Outcomes))
	}
}

func TestRunCancellationReturnsPartialReport(t *testing.T) {
	items := []domain.WorkItem{
		pendingItem("P1", "Leaking pipe under the sink"),
		pendingItem("P2", "Mice in the basement"),
	}
	native := source.NewFake(domain.SourceNative, items...)

	ctx, cancel := context.WithCancel(context.Background())
	notifier := &stubNotifier{onNotify: cancel} // cancel mid-run, after item 1 assigns

	eng := newEngine(native, nil, nil, notifier)
	report := eng.Run(ctx, baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{
			contractor("Drainmasters", "Plumbing", 4.9),
			contractor("Shield Pest Control", "Pest Control", 4.0),
		},
	})

	if len(report.Outcomes) != 1 {
		t.Fatalf("expected only the in-flight item to complete, got %d outcomes", len(report.Outcomes))
	}
	if !strings.Contains(report.ErrorNote, "cancelled") {
		t.Fatalf("expected cancellation note, got %q", report.ErrorNote)
	}
	if !report.Finished() {
		t.Fatalf("partial report must still be finished and returned")
	}
}

func TestRunNotifierFailureDoesNotRollBackAssignment(t *testing.T) {
	item := pendingItem("P1", "Leaking pipe under the sink")
	native := source.NewFake(domain.SourceNative, item)
	notifier := &stubNotifier{err: errors.New("smtp down")}

	eng := newEngine(native, nil, nil, notifier)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{contractor("Drainmasters", "Plumbing", 4.9)},
	})

	if report.AutoAssigned() != 1 {
		t.Fatalf("expected assignment to stand despite notifier failure, got %d auto-assigned", report.AutoAssigned())
	}
	if len(native.Assignments) != 1 {
		t.Fatalf("expected the adapter assignment to remain recorded")
	}
}

func TestSummaryRendersCountsAndBullets(t *testing.T) {
	native := source.NewFake(domain.SourceNative,
		pendingItem("P1", "Leaking pipe under the sink"),
		pendingItem("P3", "Outlet sparks when anything is plugged in"),
	)

	eng := newEngine(native, nil, nil, nil)
	report := eng.Run(context.Background(), baseConfig(domain.RunModeNativeOnly), Pools{
		Contractors: []domain.Contractor{contractor("Drainmasters", "Plumbing", 4.9)},
	})

	text := Summary(report)
	if !strings.Contains(text, "Auto-assigned: 1") || !strings.Contains(text, "Manual review: 1") {
		t.Fatalf("summary missing counts:\n%s", text)
	}
	if !strings.Contains(text, "Drainmasters") {
		t.Fatalf("summary missing contractor bullet:\n%s", text)
	}
	if !strings.Contains(text, policy.ReasonNoContractor) {
		t.Fatalf("summary missing review reason:\n%s", text)
	}
}
