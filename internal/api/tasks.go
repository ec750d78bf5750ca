package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/api/middleware"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/api/validate"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/model"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/metrics"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/statcache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// taskRequest 创建/更新任务的请求参数（PUT 为整体替换）。
type taskRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	Status      string `json:"status" binding:"omitempty,oneof=pending completed"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type taskResponse struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      model.TaskStatus `json:"status"`
	UserID      uint             `json:"user_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// handleListTasks 返回当前用户的任务列表（新建的在前）。
//
// GET /api/tasks?status=pending|completed
// 非法的 status 值直接忽略而不是报错。
func (s *Server) handleListTasks(c *gin.Context) {
	userID := middleware.UserID(c)
	status := model.TaskStatus(c.Query("status"))

	tasks, err := s.taskStore.ListTasks(c.Request.Context(), userID, status)
	if err != nil {
		s.logger.Error("list tasks failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching tasks"})
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, toTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": resp,
		"count": len(resp),
	})
}

// handleGetTask 按 ID 返回单个任务。
//
// 任务不存在和任务属于他人返回完全相同的 404，不给非属主任何区分信号。
func (s *Server) handleGetTask(c *gin.Context) {
	userID := middleware.UserID(c)
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := s.taskStore.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		s.logger.Error("get task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

// handleCreateTask 创建任务。
//
// POST /api/tasks
func (s *Server) handleCreateTask(c *gin.Context) {
	userID := middleware.UserID(c)

	var req taskRequest
	if !validate.BindJSON(c, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		validate.Fail(c, []validate.FieldError{{Field: "title", Message: "Task title is required"}})
		return
	}

	status := model.TaskStatus(req.Status)
	if req.Status == "" {
		status = model.TaskStatusPending
	}

	task := model.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
	}
	if err := s.taskStore.CreateTask(c.Request.Context(), &task); err != nil {
		s.logger.Error("create task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while creating task"})
		return
	}

	s.invalidateStats(c, userID)
	metrics.TasksCreatedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    toTaskResponse(&task),
	})
}

// handleUpdateTask 整体替换任务的标题/描述/状态。
//
// PUT /api/tasks/:id
func (s *Server) handleUpdateTask(c *gin.Context) {
	userID := middleware.UserID(c)
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req taskRequest
	if !validate.BindJSON(c, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		validate.Fail(c, []validate.FieldError{{Field: "title", Message: "Task title is required"}})
		return
	}

	task, err := s.taskStore.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		s.logger.Error("load task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating task"})
		return
	}

	task.Title = title
	task.Description = strings.TrimSpace(req.Description)
	task.Status = model.TaskStatusPending
	if req.Status != "" {
		task.Status = model.TaskStatus(req.Status)
	}
	if err := s.taskStore.SaveTask(c.Request.Context(), task); err != nil {
		s.logger.Error("update task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating task"})
		return
	}

	s.invalidateStats(c, userID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    toTaskResponse(task),
	})
}

// handleUpdateTaskStatus 仅切换任务状态。
//
// PATCH /api/tasks/:id/status
func (s *Server) handleUpdateTaskStatus(c *gin.Context) {
	userID := middleware.UserID(c)
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if !validate.BindJSON(c, &req) {
		return
	}
	status := model.TaskStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Status must be either pending or completed"})
		return
	}

	task, err := s.taskStore.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		s.logger.Error("load task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating task status"})
		return
	}

	task.Status = status
	if err := s.taskStore.SaveTask(c.Request.Context(), task); err != nil {
		s.logger.Error("update task status failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while updating task status"})
		return
	}

	s.invalidateStats(c, userID)
	if status == model.TaskStatusCompleted {
		metrics.TasksCompletedTotal.Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task status updated successfully",
		"task":    toTaskResponse(task),
	})
}

// handleDeleteTask 删除任务（硬删除，不可恢复）。
//
// DELETE /api/tasks/:id
func (s *Server) handleDeleteTask(c *gin.Context) {
	userID := middleware.UserID(c)
	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	if err := s.taskStore.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		s.logger.Error("delete task failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while deleting task"})
		return
	}

	s.invalidateStats(c, userID)
	metrics.TasksDeletedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// handleTaskStats 返回任务统计摘要。
//
// GET /api/tasks/stats/summary
// 摘要带短 TTL 缓存；任何任务写操作都会使缓存失效。
func (s *Server) handleTaskStats(c *gin.Context) {
	userID := middleware.UserID(c)

	if cached, err := s.statsCache.Get(c.Request.Context(), userID); err == nil && cached != nil {
		metrics.StatsCacheHitTotal.Inc()
		c.JSON(http.StatusOK, cached)
		return
	} else if err != nil {
		s.logger.Warn("stats cache read failed", slog.String("error", err.Error()))
	}

	stats, err := s.taskStore.TaskStats(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("task stats failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error while fetching task statistics"})
		return
	}

	summary := &statcache.Summary{
		Total:          stats.Total,
		Completed:      stats.Completed,
		Pending:        stats.Pending,
		CompletionRate: completionRate(stats.Completed, stats.Total),
	}
	if err := s.statsCache.Set(c.Request.Context(), userID, summary); err != nil {
		s.logger.Warn("stats cache write failed", slog.String("error", err.Error()))
	}

	c.JSON(http.StatusOK, summary)
}

// completionRate 完成率百分比，四舍五入；没有任务时为 0。
func completionRate(completed, total int64) int64 {
	if total == 0 {
		return 0
	}
	return int64(math.Round(float64(completed) / float64(total) * 100))
}

// parseTaskID 解析路径中的任务 ID，非数字返回 400。
func parseTaskID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid task ID"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) invalidateStats(c *gin.Context, userID uint) {
	if err := s.statsCache.Invalidate(c.Request.Context(), userID); err != nil {
		s.logger.Warn("stats cache invalidate failed", slog.String("error", err.Error()))
	}
}
