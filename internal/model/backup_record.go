package model

import (
	"time"
)

// BackupRecord 单设备配置备份记录
type BackupRecord struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	TaskID     string    `json:"task_id" gorm:"type:varchar(64);index"`
	DeviceIP   string    `json:"device_ip" gorm:"type:varchar(64);not null"`
	DeviceName string    `json:"device_name" gorm:"type:varchar(64)"`
	DeviceType string    `json:"device_type" gorm:"type:varchar(32)"`
	ObjectURI  string    `json:"object_uri" gorm:"type:varchar(256)"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum" gorm:"type:varchar(80)"`
	Status     string    `json:"status" gorm:"type:varchar(16);not null"`
	ErrorMsg   string    `json:"error_msg" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (BackupRecord) TableName() string {
	return "backup_records"
}

// 备份状态枚举
const (
	BackupStatusSuccess = "success"
	BackupStatusFailed  = "failed"
)
