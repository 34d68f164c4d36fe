package model

import (
	"time"
)

// SessionRecord 会话生命周期记录
type SessionRecord struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Transport    string    `json:"transport" gorm:"type:varchar(16);not null"` // serial | ssh
	Target       string    `json:"target" gorm:"type:varchar(128);not null"`   // 串口设备路径或 host:port
	DeviceType   string    `json:"device_type" gorm:"type:varchar(32);default:'generic'"`
	Mode         string    `json:"mode" gorm:"type:varchar(16)"`
	LastPrompt   string    `json:"last_prompt" gorm:"type:varchar(256)"`
	Status       string    `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	ConnectedAt  time.Time `json:"connected_at"`
	ClosedAt     time.Time `json:"closed_at"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (SessionRecord) TableName() string {
	return "session_records"
}

// 会话状态枚举
const (
	SessionStatusActive = "active"
	SessionStatusClosed = "closed"
	SessionStatusFaulty = "faulty"
)
