package model

import "time"

// User 表示系统用户。
//
// Username 与 Email 均带唯一索引，数据库是唯一性约束的最终裁决者：
// 注册时的预检查只用于给出友好提示，竞态下以插入结果为准。
type User struct {
	ID        uint      `gorm:"primaryKey"`                             // 用户 ID
	Username  string    `gorm:"type:varchar(30);uniqueIndex;not null"`  // 用户名（唯一）
	Email     string    `gorm:"type:varchar(191);uniqueIndex;not null"` // 邮箱（唯一）
	Password  string    `gorm:"not null"`                               // bcrypt 哈希
	CreatedAt time.Time // 创建时间

	Tasks []Task `gorm:"foreignKey:UserID"`
}
