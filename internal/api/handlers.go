package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/mithilsmehta/TaskFlow/internal/middleware"
	"github.com/mithilsmehta/TaskFlow/internal/models"
	"github.com/mithilsmehta/TaskFlow/internal/realtime"
	"github.com/mithilsmehta/TaskFlow/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	taskService         *services.TaskService
	notificationService *services.NotificationService
	jwtService          *services.JWTService
	users               services.UserDirectory
	linker              services.AttachmentLinker
	hub                 *realtime.Hub
}

// NewHandlers creates a new handlers instance. linker may be nil when
// attachments are not stored in S3.
func NewHandlers(
	taskService *services.TaskService,
	notificationService *services.NotificationService,
	jwtService *services.JWTService,
	users services.UserDirectory,
	linker services.AttachmentLinker,
	hub *realtime.Hub,
) *Handlers {
	return &Handlers{
		taskService:         taskService,
		notificationService: notificationService,
		jwtService:          jwtService,
		users:               users,
		linker:              linker,
		hub:                 hub,
	}
}

// identity reads the caller set by middleware.JWTAuth, answering 401 when absent
func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "Not authorized"})
		return models.Identity{}, false
	}
	return id, true
}

// respondError maps service errors onto status codes. notFound is the message
// used for models.ErrNotFound and fallback for everything unexpected.
func respondError(c *gin.Context, err error, notFound, fallback string) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"message": validation.Message})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to update this task"})
	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback, "error": err.Error()})
	}
}
