package triage

import (
	"context"
	"time"

	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/platform/logger"
)

// Classification is the opaque output of the external NLP classifier.
type Classification struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
	Summary  string `json:"summary"`
}

// Classifier is the external AI classifier port. Implementations must treat
// failures as retryable; the triage service degrades to keyword matching
// when the classifier is unavailable.
type Classifier interface {
	Classify(ctx context.Context, description string) (Classification, error)
}

const (
	classifyTimeout      = 10 * time.Second
	classifyRetryBackoff = 500 * time.Millisecond
)

// Service combines the external AI classifier with the keyword fallback.
// Classifier calls carry a bounded timeout and a single retry; any failure
// degrades to the pure keyword classifier, never to an error.
type Service struct {
	classifier Classifier // nil means keyword-only triage
	log        *logger.Logger

	// onClassifierError is invoked when the AI classifier degrades to the
	// keyword fallback. Used for metrics; may be nil.
	onClassifierError func()
}

// NewService creates a triage service. classifier may be nil to run
// keyword-only triage.
func NewService(classifier Classifier, log *logger.Logger) *Service {
	return &Service{classifier: classifier, log: log}
}

// SetClassifierErrorHook registers a callback fired on classifier degradation.
func (s *Service) SetClassifierErrorHook(hook func()) {
	s.onClassifierError = hook
}

// Triage classifies a description, preferring the external classifier's
// category and falling back to keyword matching. Urgency and the emergency
// flag always come from the fixed keyword rules: an emergency keyword match
// overrides everything else.
func (s *Service) Triage(ctx context.Context, description string, rules domain.RuleSet) domain.TriageResult {
	externalCategory := s.classifyExternal(ctx, description)
	return Classify(description, externalCategory, rules)
}

func (s *Service) classifyExternal(ctx context.Context, description string) domain.Category {
	if s.classifier == nil {
		return ""
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ""
			case <-time.After(classifyRetryBackoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, classifyTimeout)
		classification, err := s.classifier.Classify(callCtx, description)
		cancel()
		if err == nil {
			return domain.Category(classification.Category)
		}
		lastErr = err
	}

	s.log.Warn("classifier unavailable, falling back to keyword triage", "error", lastErr)
	if s.onClassifierError != nil {
		s.onClassifierError()
	}
	return ""
}
