package model

import (
	"time"
)

// Device 设备台账
type Device struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name       string    `json:"name" gorm:"type:varchar(64);not null"`
	IP         string    `json:"ip" gorm:"type:varchar(64);not null;index:idx_devices_endpoint,unique"`
	Port       int       `json:"port" gorm:"not null;default:22;index:idx_devices_endpoint,unique"`
	DeviceType string    `json:"device_type" gorm:"type:varchar(32);default:'generic'"`
	Username   string    `json:"username" gorm:"type:varchar(64)"`
	Password   string    `json:"password" gorm:"type:varchar(256)"`
	EnableSecret string  `json:"enable_secret" gorm:"type:varchar(256)"`
	Version    string    `json:"version" gorm:"type:varchar(128)"`
	Status     string    `json:"status" gorm:"type:varchar(16);default:'unknown'"`
	LastCheck  time.Time `json:"last_check"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (Device) TableName() string {
	return "devices"
}

// 设备状态枚举
const (
	DeviceStatusUnknown     = "unknown"
	DeviceStatusReachable   = "reachable"
	DeviceStatusUnreachable = "unreachable"
)
