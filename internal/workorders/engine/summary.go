package engine

import (
	"fmt"
	"strings"

	"propertyops_backend/internal/workorders/domain"
)

// Summary renders a run report as human-readable text: a header with the
// aggregate counts followed by one bullet per outcome. Suitable for logs,
// email bodies and the CLI.
func Summary(report *domain.RunReport) string {
	var b strings.Builder

	duration := report.FinishedAt.Sub(report.StartedAt).Round(1e6)
	fmt.Fprintf(&b, "Automation run %s (%s) finished in %s\n", report.ID, report.Mode, duration)
	fmt.Fprintf(&b, "Processed: %d | Auto-assigned: %d | Manual review: %d | Errors: %d | Merged duplicates: %d\n",
		report.Processed(), report.AutoAssigned(), report.ManualReviewNeeded(), report.Errors(), report.Merged())

	for _, o := range report.Outcomes {
		b.WriteString(formatOutcome(o))
		b.WriteByte('\n')
	}

	if report.ErrorNote != "" {
		fmt.Fprintf(&b, "Note: %s\n", report.ErrorNote)
	}
	return b.String()
}

func formatOutcome(o domain.ItemOutcome) string {
	prefix := fmt.Sprintf("- [%s/%s] %s", o.Source, o.Outcome, shortID(o.WorkItemID.String()))
	if o.Category != "" {
		prefix += fmt.Sprintf(" (%s, %s)", o.Category, o.Urgency)
	}

	switch o.Outcome {
	case domain.OutcomeAutoAssigned:
		return fmt.Sprintf("%s: %s at $%d, confidence %d",
			prefix, o.ContractorName, o.FinalQuoteCents/100, o.Confidence)
	case domain.OutcomeOwnerApprovalNeeded:
		return fmt.Sprintf("%s: awaiting owner approval, quote $%d (%s)",
			prefix, o.FinalQuoteCents/100, o.Reason)
	case domain.OutcomeMerged:
		merged := ""
		if o.MergedIntoID != nil {
			merged = shortID(o.MergedIntoID.String())
		}
		return fmt.Sprintf("%s: merged into %s", prefix, merged)
	default:
		return fmt.Sprintf("%s: %s", prefix, o.Reason)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
