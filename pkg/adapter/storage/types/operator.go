package types

import (
	"time"
)

type Operator struct {
	ID        string    `gorm:"column:id;size:36;primaryKey"`
	Username  string    `gorm:"column:username;size:100;not null;uniqueIndex"`
	Password  string    `gorm:"column:password;size:200;not null"`
	Role      string    `gorm:"column:role;size:50;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`

	Sessions []Session `gorm:"foreignKey:OperatorID"`
}

func (Operator) TableName() string {
	return "operators"
}

type Session struct {
	ID           uint       `gorm:"column:id;primaryKey;autoIncrement"`
	OperatorID   string     `gorm:"column:operator_id;size:36;not null;index"`
	AccessToken  string     `gorm:"column:access_token;size:500;not null"`
	RefreshToken string     `gorm:"column:refresh_token;size:500;not null;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	LoggedOutAt  *time.Time `gorm:"column:logged_out_at"`
	IsLogin      bool       `gorm:"column:is_login;not null"`
}

func (Session) TableName() string {
	return "operator_sessions"
}
