package handler

import (
	"net/http"
	"strconv"

	"ischolar/internal/middleware"
	"ischolar/internal/model"
	"ischolar/internal/repository"
	"ischolar/internal/service"
	"ischolar/pkg/apperr"
	"ischolar/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	profiles            repository.ProfileRepository
}

func NewNotificationHandler(notificationService service.NotificationService, profiles repository.ProfileRepository) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, profiles: profiles}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.Use(middleware.RequireRole(model.RoleStudent, model.RoleReviewer, model.RoleApprover, model.RoleAdmin))
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.PUT("/read-all", h.MarkAllRead)
	}
}

// List handles GET /notifications
// @Summary      List my notifications
// @Description  Unread notifications first, newest first within each group
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        limit        query     int     false  "Max items"  default(50)
// @Param        unread_only  query     bool    false  "Only unread notifications"
// @Success      200          {object}  response.Response{data=[]service.NotificationResponse}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	profileID, ok := h.resolveProfileID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), profileID, limit, unreadOnly)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, notifications))
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	profileID, ok := h.resolveProfileID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), profileID)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"unread_count": count}))
}

// MarkRead handles PUT /notifications/:id/read
// @Summary      Mark one notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	profileID, ok := h.resolveProfileID(c)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid notification ID"))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID, profileID); err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification marked as read"}))
}

// MarkAllRead handles PUT /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	profileID, ok := h.resolveProfileID(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), profileID)
	if err != nil {
		code := apperr.HTTPStatus(err)
		c.JSON(code, response.Error(code, apperr.UserMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": updated}))
}

// resolveProfileID maps the JWT subject to the owning profile. Writes the
// error response itself when resolution fails.
func (h *NotificationHandler) resolveProfileID(c *gin.Context) (uuid.UUID, bool) {
	profile, err := h.profiles.GetByUserID(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Profile not found"))
		return uuid.Nil, false
	}
	return profile.ID, true
}
