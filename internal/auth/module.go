// Package auth provides the authentication bounded context module.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"propertyops_backend/internal/auth/handler"
	"propertyops_backend/internal/auth/repository"
	"propertyops_backend/internal/auth/service"
	"propertyops_backend/internal/config"
	apphttp "propertyops_backend/internal/http"
	"propertyops_backend/platform/logger"
	"propertyops_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/auth"))
	ctx.Protected.GET("/users/me", m.handler.GetMe)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
