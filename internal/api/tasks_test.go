package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/model"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/metrics"
	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/pkg/statcache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type mockTaskStore struct {
	listFunc    func(ctx context.Context, ownerID uint, status model.TaskStatus) ([]model.Task, error)
	getFunc     func(ctx context.Context, ownerID, taskID uint) (*model.Task, error)
	createFunc  func(ctx context.Context, task *model.Task) error
	saveFunc    func(ctx context.Context, task *model.Task) error
	deleteFunc  func(ctx context.Context, ownerID, taskID uint) error
	statsFunc   func(ctx context.Context, ownerID uint) (TaskStats, error)
	createCalls int
	saveCalls   int
	deleteCalls int
}

func (m *mockTaskStore) ListTasks(ctx context.Context, ownerID uint, status model.TaskStatus) ([]model.Task, error) {
	return m.listFunc(ctx, ownerID, status)
}

func (m *mockTaskStore) GetTask(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	return m.getFunc(ctx, ownerID, taskID)
}

func (m *mockTaskStore) CreateTask(ctx context.Context, task *model.Task) error {
	m.createCalls++
	return m.createFunc(ctx, task)
}

func (m *mockTaskStore) SaveTask(ctx context.Context, task *model.Task) error {
	m.saveCalls++
	return m.saveFunc(ctx, task)
}

func (m *mockTaskStore) DeleteTask(ctx context.Context, ownerID, taskID uint) error {
	m.deleteCalls++
	return m.deleteFunc(ctx, ownerID, taskID)
}

func (m *mockTaskStore) TaskStats(ctx context.Context, ownerID uint) (TaskStats, error) {
	return m.statsFunc(ctx, ownerID)
}

func newTestServer(store *mockTaskStore) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()
	s := &Server{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		taskStore:  store,
		statsCache: statcache.New(nil, 0),
	}
	r := gin.New()
	return s, r
}

func asUser(userID uint, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		h(c)
	}
}

func TestCreateTask_Defaults(t *testing.T) {
	store := &mockTaskStore{
		createFunc: func(ctx context.Context, task *model.Task) error {
			task.ID = 1
			return nil
		},
	}
	s, r := newTestServer(store)
	r.POST("/api/tasks", asUser(7, s.handleCreateTask))

	payload, _ := json.Marshal(map[string]string{"title": "Buy milk"})
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if store.createCalls != 1 {
		t.Fatalf("expected create to be called once")
	}

	var resp struct {
		Task struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Status      string `json:"status"`
			UserID      uint   `json:"user_id"`
		} `json:"task"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Task.Status != "pending" {
		t.Fatalf("expected default status pending, got %q", resp.Task.Status)
	}
	if resp.Task.Description != "" {
		t.Fatalf("expected empty description, got %q", resp.Task.Description)
	}
	if resp.Task.UserID != 7 {
		t.Fatalf("expected owner 7, got %d", resp.Task.UserID)
	}
}

func TestCreateTask_MissingTitle(t *testing.T) {
	store := &mockTaskStore{
		createFunc: func(ctx context.Context, task *model.Task) error { return nil },
	}
	s, r := newTestServer(store)
	r.POST("/api/tasks", asUser(7, s.handleCreateTask))

	for _, body := range []string{`{}`, `{"title":"   "}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
		if !bytes.Contains(w.Body.Bytes(), []byte("Task title is required")) {
			t.Fatalf("body %s: expected title error, got %s", body, w.Body.String())
		}
	}
	if store.createCalls != 0 {
		t.Fatalf("expected no create calls on validation failure")
	}
}

func TestListTasks_IgnoresInvalidStatusFilter(t *testing.T) {
	var gotStatus model.TaskStatus = "sentinel"
	store := &mockTaskStore{
		listFunc: func(ctx context.Context, ownerID uint, status model.TaskStatus) ([]model.Task, error) {
			gotStatus = status
			return []model.Task{}, nil
		},
	}
	s, r := newTestServer(store)
	r.GET("/api/tasks", asUser(7, s.handleListTasks))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=archived", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotStatus.Valid() {
		t.Fatalf("invalid filter should not reach the store as a valid status")
	}

	var resp struct {
		Tasks []json.RawMessage `json:"tasks"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tasks == nil {
		t.Fatalf("tasks must be [] not null")
	}
	if resp.Count != 0 {
		t.Fatalf("expected count 0, got %d", resp.Count)
	}
}

func TestGetTask_InvalidID(t *testing.T) {
	store := &mockTaskStore{
		getFunc: func(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
			t.Fatalf("store should not be reached for malformed id")
			return nil, nil
		},
	}
	s, r := newTestServer(store)
	r.GET("/api/tasks/:id", asUser(7, s.handleGetTask))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/not-a-number", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Invalid task ID")) {
		t.Fatalf("expected invalid id message, got %s", w.Body.String())
	}
}

func TestUpdateTaskStatus_RejectsUnknownValue(t *testing.T) {
	store := &mockTaskStore{
		getFunc: func(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
			return &model.Task{ID: taskID, UserID: ownerID, Status: model.TaskStatusPending}, nil
		},
		saveFunc: func(ctx context.Context, task *model.Task) error { return nil },
	}
	s, r := newTestServer(store)
	r.PATCH("/api/tasks/:id/status", asUser(7, s.handleUpdateTaskStatus))

	payload := []byte(`{"status":"archived"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/1/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Status must be either pending or completed")) {
		t.Fatalf("expected status message, got %s", w.Body.String())
	}
	if store.saveCalls != 0 {
		t.Fatalf("task must not be mutated on invalid status")
	}
}

func TestUpdateTaskStatus_Toggle(t *testing.T) {
	store := &mockTaskStore{
		getFunc: func(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
			return &model.Task{ID: taskID, UserID: ownerID, Status: model.TaskStatusPending}, nil
		},
		saveFunc: func(ctx context.Context, task *model.Task) error { return nil },
	}
	s, r := newTestServer(store)
	r.PATCH("/api/tasks/:id/status", asUser(7, s.handleUpdateTaskStatus))

	payload := []byte(`{"status":"completed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/1/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.saveCalls != 1 {
		t.Fatalf("expected one save call")
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"status":"completed"`)) {
		t.Fatalf("expected completed status in response, got %s", w.Body.String())
	}
}

func TestDeleteTask_NotFound(t *testing.T) {
	store := &mockTaskStore{
		deleteFunc: func(ctx context.Context, ownerID, taskID uint) error {
			return gorm.ErrRecordNotFound
		},
	}
	s, r := newTestServer(store)
	r.DELETE("/api/tasks/:id", asUser(7, s.handleDeleteTask))

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/99", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Task not found")) {
		t.Fatalf("expected not found message, got %s", w.Body.String())
	}
}

func TestTaskStats_CompletionRate(t *testing.T) {
	cases := []struct {
		name  string
		stats TaskStats
		want  int64
	}{
		{"two thirds", TaskStats{Total: 3, Completed: 2, Pending: 1}, 67},
		{"empty", TaskStats{}, 0},
		{"all done", TaskStats{Total: 4, Completed: 4}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockTaskStore{
				statsFunc: func(ctx context.Context, ownerID uint) (TaskStats, error) {
					return tc.stats, nil
				},
			}
			s, r := newTestServer(store)
			r.GET("/api/tasks/stats/summary", asUser(7, s.handleTaskStats))

			req := httptest.NewRequest(http.MethodGet, "/api/tasks/stats/summary", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp struct {
				Total          int64 `json:"total"`
				Completed      int64 `json:"completed"`
				Pending        int64 `json:"pending"`
				CompletionRate int64 `json:"completionRate"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.CompletionRate != tc.want {
				t.Fatalf("expected rate %d, got %d", tc.want, resp.CompletionRate)
			}
			if resp.Total != tc.stats.Total || resp.Completed != tc.stats.Completed {
				t.Fatalf("unexpected counts in %+v", resp)
			}
		})
	}
}

func TestCompletionRate_Bounds(t *testing.T) {
	for completed := int64(0); completed <= 10; completed++ {
		got := completionRate(completed, 10)
		if got < 0 || got > 100 {
			t.Fatalf("rate out of bounds for %d/10: %d", completed, got)
		}
	}
	if completionRate(0, 0) != 0 {
		t.Fatalf("zero total must give rate 0")
	}
}
