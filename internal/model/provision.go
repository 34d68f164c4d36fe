package model

import (
	"time"
)

// ProvisionRun 一次模板下发的聚合记录
type ProvisionRun struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	SessionID     string    `json:"session_id" gorm:"type:varchar(64);index"`
	DeviceType    string    `json:"device_type" gorm:"type:varchar(32);not null"`
	SecurityLevel string    `json:"security_level" gorm:"type:varchar(32);not null"`
	Hostname      string    `json:"hostname" gorm:"type:varchar(64)"`
	Status        string    `json:"status" gorm:"type:varchar(32);not null"` // SUCCESS | PARTIAL SUCCESS | FAILED
	TotalSteps    int       `json:"total_steps"`
	WarningSteps  int       `json:"warning_steps"`
	ReportURI     string    `json:"report_uri" gorm:"type:varchar(256)"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (ProvisionRun) TableName() string {
	return "provision_runs"
}

// ProvisionStep 下发过程中的单步记录
type ProvisionStep struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID     string    `json:"run_id" gorm:"type:varchar(64);not null;index"`
	Seq       int       `json:"seq" gorm:"not null"`
	Command   string    `json:"command" gorm:"type:text;not null"`
	Outcome   string    `json:"outcome" gorm:"type:varchar(16);not null"` // ok | warning
	Excerpt   string    `json:"excerpt" gorm:"type:text"`
	TimedOut  bool      `json:"timed_out"`
	Duration  int64     `json:"duration"` // 毫秒
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (ProvisionStep) TableName() string {
	return "provision_steps"
}

// TransitionRun 控制台到SSH管理的端到端切换记录
type TransitionRun struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Transport      string    `json:"transport" gorm:"type:varchar(16);not null"`
	Target         string    `json:"target" gorm:"type:varchar(128);not null"`
	DeviceType     string    `json:"device_type" gorm:"type:varchar(32)"`
	SecurityLevel  string    `json:"security_level" gorm:"type:varchar(32)"`
	ApplyStatus    string    `json:"apply_status" gorm:"type:varchar(32)"`
	SSHVerified    bool      `json:"ssh_verified"`
	Summary        string    `json:"summary" gorm:"type:varchar(32)"` // success | partial | failed
	Report         string    `json:"report" gorm:"type:text"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 表名
func (TransitionRun) TableName() string {
	return "transition_runs"
}
