package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"propertyops_backend/internal/workorders/service"
	"propertyops_backend/internal/workorders/transport"
	"propertyops_backend/platform/httpkit"
	"propertyops_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for work orders
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new work-orders handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the work-order routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/work-items", h.ListWorkItems)
	rg.POST("/work-items", h.CreateWorkItem)
	rg.GET("/work-items/:id", h.GetWorkItem)
	rg.PATCH("/work-items/:id/status", h.UpdateWorkItemStatus)

	rg.GET("/contractors", h.ListContractors)
	rg.POST("/contractors", h.CreateContractor)
	rg.GET("/contractors/:id", h.GetContractor)
	rg.PATCH("/contractors/:id/availability", h.UpdateContractorAvailability)

	rg.POST("/automation/runs", h.TriggerRun)
	rg.GET("/automation/runs", h.ListRuns)
	rg.GET("/automation/runs/:id", h.GetRun)
	rg.GET("/automation/lock", h.GetLock)
}

// CreateWorkItem handles POST /api/v1/work-items
func (h *Handler) CreateWorkItem(c *gin.Context) {
	var req transport.CreateWorkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateWorkItem(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// GetWorkItem handles GET /api/v1/work-items/:id
func (h *Handler) GetWorkItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetWorkItem(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListWorkItems handles GET /api/v1/work-items
func (h *Handler) ListWorkItems(c *gin.Context) {
	var req transport.ListWorkItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.ListWorkItems(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateWorkItemStatus handles PATCH /api/v1/work-items/:id/status
func (h *Handler) UpdateWorkItemStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateWorkItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.UpdateWorkItemStatus(c.Request.Context(), id, actorRole(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// CreateContractor handles POST /api/v1/contractors
func (h *Handler) CreateContractor(c *gin.Context) {
	var req transport.CreateContractorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateContractor(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// GetContractor handles GET /api/v1/contractors/:id
func (h *Handler) GetContractor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetContractor(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListContractors handles GET /api/v1/contractors
func (h *Handler) ListContractors(c *gin.Context) {
	result, err := h.svc.ListContractors(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// UpdateContractorAvailability handles PATCH /api/v1/contractors/:id/availability
func (h *Handler) UpdateContractorAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateContractorAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.UpdateContractorAvailability(c.Request.Context(), id, req); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// TriggerRun handles POST /api/v1/automation/runs. The body is optional; an
// empty body runs in the configured mode.
func (h *Handler) TriggerRun(c *gin.Context) {
	var req transport.TriggerRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	result, err := h.svc.TriggerRun(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// ListRuns handles GET /api/v1/automation/runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		limit = parsed
	}

	result, err := h.svc.ListRuns(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetRun handles GET /api/v1/automation/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetRun(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetLock handles GET /api/v1/automation/lock
func (h *Handler) GetLock(c *gin.Context) {
	holder, held, err := h.svc.LockHolder(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"held": held, "holder": holder})
}

// actorRole derives the acting role for log attribution from the caller's
// identity. Defaults to operator for role-less tokens.
func actorRole(c *gin.Context) string {
	identity := httpkit.GetIdentity(c)
	if roles := identity.Roles(); len(roles) > 0 {
		return roles[0]
	}
	return "operator"
}
