package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/dto"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications returns a page of the caller's notifications.
// Accepts limit, skip and read query parameters.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	input := services.ListNotificationsInput{
		UserID: actor.ID,
		Limit:  constants.DefaultNotificationPage,
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			apierrors.BadRequest(c, "Invalid limit")
			return
		}
		input.Limit = limit
	}
	if v := c.Query("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			apierrors.BadRequest(c, "Invalid skip")
			return
		}
		input.Skip = skip
	}
	if v := c.Query("read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid read filter")
			return
		}
		input.Read = &read
	}

	page, err := h.notificationService.List(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{
		"notifications": dto.ToNotificationDTOs(page.Notifications),
		"total":         page.Total,
		"unread_count":  page.UnreadCount,
	})
}

// UnreadCount returns how many notifications the caller has not read.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{"unread_count": count})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(middleware.GetIDParam(c, "id"), actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "", gin.H{"notification": dto.ToNotificationDTO(*notification)})
}

// MarkAllRead marks every unread notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

// DeleteNotification deletes one of the caller's notifications.
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(middleware.GetIDParam(c, "id"), actor.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Notification deleted", nil)
}

// DeleteRead deletes every read notification of the caller.
func (h *NotificationHandler) DeleteRead(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	deleted, err := h.notificationService.DeleteRead(actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Read notifications deleted", gin.H{"deleted": deleted})
}
