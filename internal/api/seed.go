package api

import (
	"context"
	"errors"

	"github.com/shivig5964-svg/Shivangi-Task-Management-Project/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDemoData 初始化演示账号与示例任务（仅本地环境）。
//
// 账号已存在时不做任何修改，示例任务只在首次创建账号时写入。
func (s *Server) SeedDemoData(ctx context.Context) error {
	const (
		demoUsername = "demo_user"
		demoEmail    = "demo@taskmanager.local"
		demoPassword = "Demo1234"
	)

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", demoEmail).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user = model.User{
		Username: demoUsername,
		Email:    demoEmail,
		Password: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}

	samples := []model.Task{
		{UserID: user.ID, Title: "Try out the task manager", Description: "Create, complete and delete a few tasks.", Status: model.TaskStatusCompleted},
		{UserID: user.ID, Title: "Buy milk", Status: model.TaskStatusPending},
		{UserID: user.ID, Title: "Read the API docs", Description: "See the health endpoint and stats summary.", Status: model.TaskStatusPending},
	}
	return s.db.WithContext(ctx).Create(&samples).Error
}
