// Package gemini implements the maintenance-request classifier on top of the
// Gemini API. The classifier is opaque to the triage service: it returns a
// category/priority/summary triple or an error, and the triage service owns
// the keyword fallback.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"propertyops_backend/internal/workorders/triage"
	"propertyops_backend/platform/logger"
)

const systemPrompt = `You classify residential maintenance requests for a property manager.
Given a tenant's free-text description, respond with JSON only:
{"category": "<one of: %s>", "priority": "<Low|Medium|High|Emergency>", "summary": "<one sentence>"}`

// Classifier calls Gemini to classify a maintenance description. A circuit
// breaker shields the pipeline from a degraded API: while the breaker is open
// every call fails fast and the triage service stays on keyword matching.
type Classifier struct {
	client     *genai.Client
	model      string
	categories []string
	breaker    *gobreaker.CircuitBreaker[triage.Classification]
	log        *logger.Logger
}

func NewClassifier(ctx context.Context, apiKey, model string, categories []string, log *logger.Logger) (*Classifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[triage.Classification](gobreaker.Settings{
		Name:    "gemini-classifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("classifier circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Classifier{
		client:     client,
		model:      model,
		categories: categories,
		breaker:    breaker,
		log:        log,
	}, nil
}

func (c *Classifier) Classify(ctx context.Context, description string) (triage.Classification, error) {
	return c.breaker.Execute(func() (triage.Classification, error) {
		return c.classify(ctx, description)
	})
}

func (c *Classifier) classify(ctx context.Context, description string) (triage.Classification, error) {
	prompt := fmt.Sprintf(systemPrompt, strings.Join(c.categories, ", "))

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(description),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return triage.Classification{}, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return triage.Classification{}, fmt.Errorf("gemini returned empty response")
	}

	var classification triage.Classification
	if err := json.Unmarshal([]byte(extractJSON(text)), &classification); err != nil {
		return triage.Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	if classification.Category == "" {
		return triage.Classification{}, fmt.Errorf("classification missing category")
	}
	return classification, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// JSON output.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

var _ triage.Classifier = (*Classifier)(nil)
