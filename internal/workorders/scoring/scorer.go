// Package scoring ranks contractors for a classified maintenance request.
package scoring

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/domain"
)

const (
	// Score weights. Rating dominates; live workload pushes a contractor
	// down the ranking.
	ratingWeight    = 20.0
	activeJobWeight = 5.0
)

// Candidate is one ranked contractor together with the workload figures the
// decision policy needs for confidence and reasoning.
type Candidate struct {
	Contractor domain.Contractor
	ActiveJobs int
	Score      float64
}

// Snapshot is a per-run view of contractor workload. It is computed once
// from the active work-item pool at run start and incremented in memory as
// the run assigns new items, so several assignments in one run cannot
// over-commit a contractor before anything is persisted.
type Snapshot struct {
	activeJobs map[uuid.UUID]int
}

// NewSnapshot derives contractor workloads from the active work-item pool.
// Only items in an active status with an assigned contractor count.
func NewSnapshot(activeItems []domain.WorkItem) *Snapshot {
	counts := make(map[uuid.UUID]int)
	for _, item := range activeItems {
		if item.ContractorID == nil || !item.Status.CountsAsActive() {
			continue
		}
		counts[*item.ContractorID]++
	}
	return &Snapshot{activeJobs: counts}
}

// ActiveJobs returns the current in-run workload for a contractor.
func (s *Snapshot) ActiveJobs(contractorID uuid.UUID) int {
	return s.activeJobs[contractorID]
}

// RecordAssignment bumps the in-memory workload after the run assigns an item.
func (s *Snapshot) RecordAssignment(contractorID uuid.UUID) {
	s.activeJobs[contractorID]++
}

// Rank filters the pool to contractors eligible for the category and returns
// them ranked best-first. An empty result is a valid outcome (no suitable
// contractor), not an error.
//
// Ties keep input order: the sort is stable and no secondary key is applied.
// That is a deliberate simplicity choice, not a correctness requirement; a
// fairness-aware tie-break (round-robin, least-recently-assigned) would slot
// in here if equal distribution across equally-qualified contractors ever
// matters.
func Rank(category domain.Category, pool []domain.Contractor, snapshot *Snapshot) []Candidate {
	candidates := make([]Candidate, 0, len(pool))
	for _, contractor := range pool {
		if !Eligible(contractor, category) {
			continue
		}
		activeJobs := snapshot.ActiveJobs(contractor.ID)
		candidates = append(candidates, Candidate{
			Contractor: contractor,
			ActiveJobs: activeJobs,
			Score:      contractor.Rating*ratingWeight - float64(activeJobs)*activeJobWeight,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

// Eligible reports whether a contractor can take work in the category:
// available, with at least one specialty containing the category
// (case-insensitive substring).
func Eligible(contractor domain.Contractor, category domain.Category) bool {
	if contractor.Availability != domain.AvailabilityAvailable {
		return false
	}
	want := strings.ToLower(string(category))
	for _, specialty := range contractor.Specialties {
		if strings.Contains(strings.ToLower(specialty), want) {
			return true
		}
	}
	return false
}
