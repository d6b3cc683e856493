// Package workorders provides the work-orders domain module: maintenance
// request intake, contractor administration and the automation engine.
package workorders

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"propertyops_backend/internal/config"
	"propertyops_backend/internal/events"
	apphttp "propertyops_backend/internal/http"
	"propertyops_backend/internal/runlock"
	"propertyops_backend/internal/workorders/domain"
	"propertyops_backend/internal/workorders/engine"
	"propertyops_backend/internal/workorders/handler"
	"propertyops_backend/internal/workorders/repository"
	"propertyops_backend/internal/workorders/service"
	"propertyops_backend/internal/workorders/source"
	"propertyops_backend/internal/workorders/triage"
	"propertyops_backend/platform/logger"
	"propertyops_backend/platform/metrics"
	"propertyops_backend/platform/validator"
)

// Module represents the work-orders domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// Deps are the external collaborators of the module. Classifier, Notifier and
// Archiver may be nil; the engine degrades gracefully without them.
type Deps struct {
	Pool       *pgxpool.Pool
	Config     *config.Config
	Rules      domain.RuleSet
	Validator  *validator.Validator
	Bus        events.Bus
	Metrics    *metrics.Metrics
	Lock       *runlock.Lock
	Classifier triage.Classifier
	Notifier   engine.Notifier
	Archiver   service.Archiver
	Logger     *logger.Logger
}

// NewModule creates a new work-orders module with all dependencies wired
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)

	triageSvc := triage.NewService(deps.Classifier, deps.Logger)
	if deps.Metrics != nil {
		triageSvc.SetClassifierErrorHook(deps.Metrics.ClassifierErrors.Inc)
	}

	native := source.NewNativeAdapter(repo)
	var external source.Adapter
	if deps.Config.ExternalSourceEnabled() {
		external = source.NewExternalAdapter(
			deps.Config.ExternalSourceBaseURL,
			deps.Config.ExternalSourceAPIKey,
			deps.Logger,
		)
	}

	eng := engine.New(native, external, triageSvc, deps.Notifier, deps.Logger)
	svc := service.New(repo, eng, deps.Config, deps.Rules, deps.Lock, deps.Bus,
		deps.Metrics, deps.Archiver, deps.Logger)
	h := handler.New(svc, deps.Validator)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "workorders"
}

// RegisterRoutes registers the module's routes under /api/v1
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
