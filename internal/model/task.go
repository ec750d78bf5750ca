package model

import (
	"time"
)

// TaskStatus 任务状态枚举。
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待办
	TaskStatusCompleted TaskStatus = "completed" // 已完成
)

// Valid 判断状态值是否为合法枚举。
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Task 表示一条待办事项。
//
// 每条任务归属于唯一用户（UserID），所有查询和修改都必须带 user_id 条件，
// 归属关系在创建后不可变。状态只有 pending / completed 两个值，
// 两个方向的切换均不受限制。
type Task struct {
	ID        uint      `gorm:"primaryKey"` // 任务唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	UserID uint `gorm:"index;not null"`    // 所属用户 ID
	User   User `gorm:"foreignKey:UserID"` // 所属用户

	Title       string     `gorm:"type:varchar(100);not null"`       // 标题（1-100 字符）
	Description string     `gorm:"type:varchar(500)"`                // 描述（0-500 字符，可为空）
	Status      TaskStatus `gorm:"type:varchar(16);default:pending"` // 状态: pending / completed
}
