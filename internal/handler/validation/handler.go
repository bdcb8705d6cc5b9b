package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/validation-api/internal/handler"
	"github.com/jwalitptl/validation-api/internal/model"
	validationService "github.com/jwalitptl/validation-api/internal/service/validation"
	apperrors "github.com/jwalitptl/validation-api/pkg/errors"
)

type Handler struct {
	service *validationService.Service
}

func NewHandler(service *validationService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	validate := r.Group("/validate")
	{
		validate.POST("/field", h.ValidateField)
		validate.POST("/fields", h.ValidateFields)
	}

	admin := r.Group("/admin")
	{
		admin.POST("/cache/invalidate", h.InvalidateCache)
	}
}

type validateFieldRequest struct {
	TenantID  int64  `json:"tenant_id" binding:"required"`
	CountryID int64  `json:"country_id" binding:"required"`
	FieldKind string `json:"field_kind" binding:"required"`
	Value     string `json:"value"`
}

func (h *Handler) ValidateField(c *gin.Context) {
	var req validateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request", err))
		return
	}

	result := h.service.ValidateField(c.Request.Context(), req.TenantID, req.CountryID, model.FieldKind(req.FieldKind), req.Value)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

type validateFieldsRequest struct {
	TenantID  int64             `json:"tenant_id" binding:"required"`
	CountryID int64             `json:"country_id" binding:"required"`
	Fields    map[string]string `json:"fields" binding:"required"`
}

func (h *Handler) ValidateFields(c *gin.Context) {
	var req validateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request", err))
		return
	}

	fields := make(map[model.FieldKind]string, len(req.Fields))
	for kind, value := range req.Fields {
		fields[model.FieldKind(kind)] = value
	}

	results := h.service.ValidateMultiple(c.Request.Context(), req.TenantID, req.CountryID, fields)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
}

type invalidateCacheRequest struct {
	TenantID  *int64  `json:"tenant_id"`
	CountryID *int64  `json:"country_id"`
	FieldKind *string `json:"field_kind"`
}

// InvalidateCache is the administrative hook called after a rule or
// override edit. Omitted fields widen the invalidation scope.
func (h *Handler) InvalidateCache(c *gin.Context) {
	var req invalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("invalid request", err))
		return
	}

	event := validationService.InvalidationEvent{
		TenantID:  req.TenantID,
		CountryID: req.CountryID,
	}
	if req.FieldKind != nil {
		kind := model.FieldKind(*req.FieldKind)
		event.FieldKind = &kind
	}

	if err := h.service.InvalidateCache(c.Request.Context(), event); err != nil {
		c.Error(apperrors.NewInternal(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"invalidated": true}))
}
