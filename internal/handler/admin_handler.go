package handler

import (
	"net/http"

	"ischolar/internal/middleware"
	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/internal/service"
	"ischolar/pkg/apperr"
	"ischolar/pkg/pagination"
	"ischolar/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler groups the admin-only operational endpoints: the dashboard,
// the audit trail, and the manual capacity threshold sweep.
type AdminHandler struct {
	statisticsService service.StatisticsService
	auditService      service.AuditService
	thresholdService  service.ThresholdService
	profiles          repository.ProfileRepository
}

func NewAdminHandler(
	statisticsService service.StatisticsService,
	auditService service.AuditService,
	thresholdService service.ThresholdService,
	profiles repository.ProfileRepository,
) *AdminHandler {
	return &AdminHandler{
		statisticsService: statisticsService,
		auditService:      auditService,
		thresholdService:  thresholdService,
		profiles:          profiles,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.GET("/audit", h.ListAuditLogs)
		admin.POST("/check-thresholds", h.CheckThresholds)
	}
}

// GetDashboard handles GET /admin/dashboard
// @Summary      Admin dashboard
// @Description  Profile counts, pending verifications, applications by status, and per-cycle fill rates
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Router       /admin/dashboard [get]
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.statisticsService.GetDashboard(c.Request.Context())
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}

// ListAuditLogs handles GET /admin/audit
// @Summary      List audit logs
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        action  query     string  false  "Filter by action"
// @Param        page    query     int     false  "Page number"     default(1)
// @Param        limit   query     int     false  "Items per page"  default(20)
// @Success      200     {object}  response.Response{data=response.PaginatedData}
// @Router       /admin/audit [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), c.Query("action"), params.Page, params.Limit)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, params.Page, params.Limit, total))
}

// CheckThresholds handles POST /admin/check-thresholds
// @Summary      Run the capacity threshold sweep
// @Description  Scans open program cycles and alerts staff for any at or above 80 percent capacity
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ThresholdAlert}
// @Router       /admin/check-thresholds [post]
func (h *AdminHandler) CheckThresholds(c *gin.Context) {
	var actorID *uuid.UUID
	if profile, err := h.profiles.GetByUserID(c.Request.Context(), currentUserID(c)); err == nil {
		actorID = &profile.ID
	}

	alerts, err := h.thresholdService.CheckThresholds(c.Request.Context(), actorID)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"alerts_sent": len(alerts),
		"alerts":      alerts,
	}))
}
