package api

import (
	"net/http"

	"github.com/mithilsmehta/TaskFlow/internal/models"
	"github.com/mithilsmehta/TaskFlow/internal/services"

	"github.com/gin-gonic/gin"
)

const taskNotFound = "Task not found"

// ListTasksHandler handles GET /api/tasks?status=
func (h *Handlers) ListTasksHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	result, err := h.taskService.List(c.Request.Context(), caller, models.TaskStatus(c.Query("status")))
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTaskHandler handles GET /api/tasks/:id
func (h *Handlers) GetTaskHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to fetch task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTaskHandler handles POST /api/tasks
func (h *Handlers) CreateTaskHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTaskHandler handles PUT /api/tasks/:id
func (h *Handlers) UpdateTaskHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	result, err := h.taskService.Update(c.Request.Context(), caller, c.Param("id"), &patch)
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteTaskHandler handles DELETE /api/tasks/:id
func (h *Handlers) DeleteTaskHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, err, taskNotFound, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// UpdateTaskStatusHandler handles PUT /api/tasks/:id/status
func (h *Handlers) UpdateTaskStatusHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req models.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to update task status")
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTaskChecklistHandler handles PUT /api/tasks/:id/todo
func (h *Handlers) UpdateTaskChecklistHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req models.ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateChecklist(c.Request.Context(), caller, c.Param("id"), req.Checklist)
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to update checklist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Checklist updated", "task": task})
}

// DashboardHandler handles GET /api/tasks/dashboard-data
func (h *Handlers) DashboardHandler(c *gin.Context) {
	h.dashboard(c, false)
}

// UserDashboardHandler handles GET /api/tasks/user-dashboard-data
func (h *Handlers) UserDashboardHandler(c *gin.Context) {
	h.dashboard(c, true)
}

func (h *Handlers) dashboard(c *gin.Context, mine bool) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	data, err := h.taskService.Dashboard(c.Request.Context(), caller, mine)
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to fetch dashboard data")
		return
	}
	c.JSON(http.StatusOK, data)
}

// TaskAttachmentsHandler handles GET /api/tasks/:id/attachments
func (h *Handlers) TaskAttachmentsHandler(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to fetch task")
		return
	}

	links, err := services.AttachmentLinks(c.Request.Context(), h.linker, task)
	if err != nil {
		respondError(c, err, taskNotFound, "Failed to resolve attachments")
		return
	}
	c.JSON(http.StatusOK, links)
}
