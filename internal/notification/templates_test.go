package notification

import (
	"strings"
	"testing"
)

func TestRenderAssignmentTemplate(t *testing.T) {
	html, err := renderEmailTemplate("assignment.html", assignmentEmailData{
		Title:              "New job assignment",
		Heading:            "You have a new job",
		ContractorName:     "Drainmasters",
		PropertyID:         "P1",
		Category:           "Plumbing",
		Description:        "Leaking pipe under the sink",
		ContractorPhone:    "+14155550123",
		EstimatedFormatted: "$475.00",
		QuoteFormatted:     "$546.00",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"Drainmasters", "P1", "Plumbing", "$546.00", "+14155550123"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered email missing %q", want)
		}
	}
}

func TestRenderAssignmentTemplateOmitsEmptyPhone(t *testing.T) {
	html, err := renderEmailTemplate("assignment.html", assignmentEmailData{
		Title:          "New job assignment",
		Heading:        "You have a new job",
		ContractorName: "Drainmasters",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "Contact on file") {
		t.Fatalf("expected phone row to be omitted when empty")
	}
}

func TestFormatCurrencyUSD(t *testing.T) {
	if got := formatCurrencyUSD(54600); got != "$546.00" {
		t.Fatalf("expected $546.00, got %s", got)
	}
	if got := formatCurrencyUSD(101250); got != "$1012.50" {
		t.Fatalf("expected $1012.50, got %s", got)
	}
}
