package api

import (
	"net/http"
	"strconv"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/gin-gonic/gin"
)

const notificationNotFound = "Notification not found"

// ListNotificationsHandler handles GET /api/notifications?limit=&skip=&unreadOnly=
func (h *Handlers) ListNotificationsHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	q := models.NotificationQuery{
		Limit:      queryInt(c, "limit", 20),
		Skip:       queryInt(c, "skip", 0),
		UnreadOnly: c.Query("unreadOnly") == "true",
	}

	result, err := h.notificationService.List(c.Request.Context(), caller, q)
	if err != nil {
		respondError(c, err, notificationNotFound, "Error fetching notifications")
		return
	}
	c.JSON(http.StatusOK, result)
}

// UnreadCountHandler handles GET /api/notifications/unread-count
func (h *Handlers) UnreadCountHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err, notificationNotFound, "Error fetching unread count")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkReadHandler handles PUT /api/notifications/:id/read
func (h *Handlers) MarkReadHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err, notificationNotFound, "Error marking notification as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read", "notification": n})
}

// MarkAllReadHandler handles PUT /api/notifications/read-all
func (h *Handlers) MarkAllReadHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	count, err := h.notificationService.MarkAllRead(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err, notificationNotFound, "Error marking all notifications as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "modified": count})
}

// DeleteNotificationHandler handles DELETE /api/notifications/:id
func (h *Handlers) DeleteNotificationHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, err, notificationNotFound, "Error deleting notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// queryInt parses an integer query parameter, falling back on absent or bad input
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
