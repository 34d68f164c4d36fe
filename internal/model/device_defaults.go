package model

import (
	"time"
)

// DeviceDefaults 按设备类型持久化的交互默认项，管理接口可在线调整
type DeviceDefaults struct {
	DeviceType          string    `json:"device_type" gorm:"primaryKey;type:varchar(32)"`
	ErrorHints          string    `json:"error_hints" gorm:"type:text"` // 逗号分隔
	CommandTimeoutMS    int       `json:"command_timeout_ms"`
	InterCommandDelayMS int       `json:"inter_command_delay_ms"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 表名
func (DeviceDefaults) TableName() string {
	return "device_defaults"
}
