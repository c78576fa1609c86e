package user

import (
	"context"
	"time"
)

// User 用户模型。注册/登录由外部账号服务负责，口令字段只存不校验，
// 邮箱和姓名用于订单确认邮件。
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName  string    `gorm:"size:128" json:"full_name"`
	Password  string    `gorm:"size:128" json:"-"`
	Salt      string    `gorm:"size:32" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	ListAll(ctx context.Context) ([]*User, error)
}
