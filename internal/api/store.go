package api

import (
	"context"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/model"

	"gorm.io/gorm"
)

// TaskStats 按状态统计的任务数量。
type TaskStats struct {
	Total     int64
	Completed int64
	Pending   int64
}

// TaskStore 任务持久化接口。
//
// 所有方法都以 ownerID 约束查询范围，实现方不得返回或修改其他用户的
// 任务；"不存在"与"不属于调用者"统一表现为 gorm.ErrRecordNotFound。
type TaskStore interface {
	ListTasks(ctx context.Context, ownerID uint, status model.TaskStatus) ([]model.Task, error)
	GetTask(ctx context.Context, ownerID, taskID uint) (*model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	SaveTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, ownerID, taskID uint) error
	TaskStats(ctx context.Context, ownerID uint) (TaskStats, error)
}

type dbTaskStore struct {
	db *gorm.DB
}

// NewTaskStore 返回基于 GORM 的 TaskStore。
func NewTaskStore(db *gorm.DB) TaskStore {
	return dbTaskStore{db: db}
}

func (s dbTaskStore) ListTasks(ctx context.Context, ownerID uint, status model.TaskStatus) ([]model.Task, error) {
	tasks := []model.Task{}
	query := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if status.Valid() {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s dbTaskStore) GetTask(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, ownerID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (s dbTaskStore) CreateTask(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Create(task).Error
}

func (s dbTaskStore) SaveTask(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Save(task).Error
}

func (s dbTaskStore) DeleteTask(ctx context.Context, ownerID, taskID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, ownerID).
		Delete(&model.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s dbTaskStore) TaskStats(ctx context.Context, ownerID uint) (TaskStats, error) {
	var stats TaskStats
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ?", ownerID).
		Count(&stats.Total).Error; err != nil {
		return TaskStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status = ?", ownerID, model.TaskStatusCompleted).
		Count(&stats.Completed).Error; err != nil {
		return TaskStats{}, err
	}
	if err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status = ?", ownerID, model.TaskStatusPending).
		Count(&stats.Pending).Error; err != nil {
		return TaskStats{}, err
	}
	return stats, nil
}
