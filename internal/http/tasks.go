package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/catalog/internal/tasks"
)

const taskLookupTimeout = 5 * time.Second

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue         TaskQueue
	retentionDays int
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, retentionDays int) *TasksController {
	return &TasksController{queue: queue, retentionDays: retentionDays}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        tasks.OverdueScanQueue,
			Description: "Find loaned copies past their due date",
			Queue:       tasks.OverdueScanQueue,
		},
		{
			Type:        tasks.CleanupAuditEventsQueue,
			Description: "Delete audit events older than the retention period",
			Queue:       tasks.CleanupAuditEventsQueue,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
	})
}

// GetTaskStatus handles GET /api/tasks/:task
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task")

	ctx, cancel := context.WithTimeout(c.Request.Context(), taskLookupTimeout)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		fail(c, err)
		return
	}
	if status == backlite.TaskStatusNotFound {
		fail(c, NotFound("task not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:task/run
// Manually enqueues a task of the given type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("task")

	var task backlite.Task
	switch taskType {
	case tasks.OverdueScanQueue:
		task = tasks.OverdueScanTask{}

	case tasks.CleanupAuditEventsQueue:
		days := tc.retentionDays
		if raw := c.Query("retention_days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				fail(c, &HTTPError{Status: http.StatusBadRequest, Message: "retention_days must be a positive integer"})
				return
			}
			days = n
		}
		task = tasks.CleanupAuditEventsTask{RetentionDays: days}

	default:
		fail(c, NotFound("unknown task type: "+taskType))
		return
	}

	id, err := tc.queue.Enqueue(c.Request.Context(), task)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
