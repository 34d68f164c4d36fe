package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server         ServerConfig                    `mapstructure:"server"`
	Log            LogConfig                       `mapstructure:"log"`
	Database       DatabaseConfig                  `mapstructure:"database"`
	Redis          RedisConfig                     `mapstructure:"redis"`
	Storage        StorageConfig                   `mapstructure:"storage"`
	Console        ConsoleConfig                   `mapstructure:"console"`
	SSH            SSHConfig                       `mapstructure:"ssh"`
	Provision      ProvisionConfig                 `mapstructure:"provision"`
	Session        SessionConfig                   `mapstructure:"session"`
	Backup         BackupConfig                    `mapstructure:"backup"`
	Scheduler      SchedulerConfig                 `mapstructure:"scheduler"`
	Simulate       SimulateConfig                  `mapstructure:"simulate"`
	DeviceDefaults map[string]DeviceDefaultsConfig `mapstructure:"device_defaults"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig 设备事实缓存配置，Host为空表示禁用
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	FactTTL      time.Duration `mapstructure:"fact_ttl"`
}

// StorageConfig 报告与备份的对象存储配置
type StorageConfig struct {
	// Type 默认写入后端：local | minio
	Type  string             `mapstructure:"type"`
	Local LocalStorageConfig `mapstructure:"local"`
	Minio MinioConfig        `mapstructure:"minio"`
}

// LocalStorageConfig 本地目录存储配置
type LocalStorageConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	MkdirIfMissing bool   `mapstructure:"mkdir_if_missing"`
}

// MinioConfig 对象存储配置
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// ConsoleConfig 串口控制台参数
type ConsoleConfig struct {
	BaudRate int    `mapstructure:"baud_rate"`
	DataBits int    `mapstructure:"data_bits"`
	StopBits int    `mapstructure:"stop_bits"`
	Parity   string `mapstructure:"parity"`
	// ReadSlice 单次读取窗口，会话层在总超时内循环消费
	ReadSlice time.Duration `mapstructure:"read_slice"`
}

// SSHConfig SSH传输参数
type SSHConfig struct {
	Port             int           `mapstructure:"port"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	KeepAlive        time.Duration `mapstructure:"keep_alive"`
	LegacyAlgorithms bool          `mapstructure:"legacy_algorithms"`
}

// ProvisionConfig 配置下发编排参数
type ProvisionConfig struct {
	// CommandTimeout 单条命令默认超时
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	// SlowTimeoutMultiplier 慢操作（密钥生成等）超时倍数
	SlowTimeoutMultiplier int `mapstructure:"slow_timeout_multiplier"`
	// InterCommandDelay 相邻命令间的固定间隔，规避提示符重绘期丢字
	InterCommandDelay time.Duration `mapstructure:"inter_command_delay"`
	// FailureThreshold 警告步数占比达到该阈值判为FAILED，低于判为PARTIAL
	FailureThreshold float64 `mapstructure:"failure_threshold"`
	// SSHServiceWait 下发完成后等待设备SSH服务初始化的固定时长
	SSHServiceWait time.Duration `mapstructure:"ssh_service_wait"`
	// VerifyTimeout 外部SSH可达性验证超时
	VerifyTimeout time.Duration `mapstructure:"verify_timeout"`
	// DefaultSecurityLevel 未指定时使用的模板安全级别
	DefaultSecurityLevel string `mapstructure:"default_security_level"`
	// FailureKeywords 命令级失败关键字（大小写不敏感子串匹配）
	FailureKeywords []string `mapstructure:"failure_keywords"`
}

// SessionConfig 会话生命周期配置
type SessionConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// BackupConfig 配置备份服务配置
type BackupConfig struct {
	// Concurrent 批量备份的最大并发设备数
	Concurrent int `mapstructure:"concurrent"`
	// Commands 按设备类型的备份命令，键为设备类型标签
	Commands map[string][]string `mapstructure:"commands"`
	// Prefix 对象路径顶层前缀
	Prefix string `mapstructure:"prefix"`
}

// SchedulerConfig 周期备份调度配置
type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	WebhookURL string        `mapstructure:"webhook_url"`
}

// SimulateConfig 设备模拟器配置
type SimulateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	// ConfigPath 模拟设备定义文件路径
	ConfigPath string `mapstructure:"config_path"`
}

// DeviceDefaultsConfig 按设备类型的交互默认项覆盖
type DeviceDefaultsConfig struct {
	// ErrorHints 追加到全局失败关键字之后的平台级关键字
	ErrorHints []string `mapstructure:"error_hints"`
	// InterCommandDelay 覆盖全局的命令间隔
	InterCommandDelay time.Duration `mapstructure:"inter_command_delay"`
	// CommandTimeout 覆盖全局的单命令超时
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

var globalConfig *Config

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
		viper.AddConfigPath("../../configs")
	}

	viper.SetEnvPrefix("SWITCH_CONFIG")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 兼容旧键名：storage.backend -> storage.type
	if strings.TrimSpace(config.Storage.Type) == "" {
		if viper.IsSet("storage.backend") {
			config.Storage.Type = strings.TrimSpace(viper.GetString("storage.backend"))
		}
	}

	// 阈值越界时回落默认，避免0值导致全部判FAILED
	if config.Provision.FailureThreshold <= 0 || config.Provision.FailureThreshold > 1 {
		config.Provision.FailureThreshold = 0.5
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", 60*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "console")
	viper.SetDefault("log.file_path", "logs/switchconfigpro.log")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age", 30)

	viper.SetDefault("database.path", "data/switchconfigpro.db")
	viper.SetDefault("database.conn_max_lifetime", time.Hour)

	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.dial_timeout", 5*time.Second)
	viper.SetDefault("redis.read_timeout", 3*time.Second)
	viper.SetDefault("redis.write_timeout", 3*time.Second)
	viper.SetDefault("redis.fact_ttl", 24*time.Hour)

	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_dir", "./data/storage")
	viper.SetDefault("storage.local.mkdir_if_missing", true)

	viper.SetDefault("console.baud_rate", 9600)
	viper.SetDefault("console.data_bits", 8)
	viper.SetDefault("console.stop_bits", 1)
	viper.SetDefault("console.parity", "none")
	viper.SetDefault("console.read_slice", 500*time.Millisecond)

	viper.SetDefault("ssh.port", 22)
	viper.SetDefault("ssh.connect_timeout", 30*time.Second)
	viper.SetDefault("ssh.keep_alive", 30*time.Second)
	viper.SetDefault("ssh.legacy_algorithms", true)

	viper.SetDefault("provision.command_timeout", 10*time.Second)
	viper.SetDefault("provision.slow_timeout_multiplier", 9)
	viper.SetDefault("provision.inter_command_delay", 500*time.Millisecond)
	viper.SetDefault("provision.failure_threshold", 0.5)
	viper.SetDefault("provision.ssh_service_wait", 10*time.Second)
	viper.SetDefault("provision.verify_timeout", 20*time.Second)
	viper.SetDefault("provision.default_security_level", "standard")
	viper.SetDefault("provision.failure_keywords", []string{"invalid", "error", "failed", "unknown command"})

	viper.SetDefault("session.idle_timeout", 30*time.Minute)
	viper.SetDefault("session.cleanup_interval", 5*time.Minute)

	viper.SetDefault("backup.concurrent", 5)
	viper.SetDefault("backup.prefix", "backups")
	viper.SetDefault("backup.commands", map[string][]string{
		"cisco-ios":    {"show running-config"},
		"cisco-ios-xe": {"show running-config"},
		"huawei-vrp":   {"display current-configuration"},
		"generic":      {"show running-config"},
	})

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.interval", time.Hour)

	viper.SetDefault("simulate.enabled", false)
	viper.SetDefault("simulate.listen", "127.0.0.1:2222")
	viper.SetDefault("simulate.config_path", "simulate/devices.yaml")
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CommandTimeoutFor 返回指定设备类型的单命令超时
func (c *Config) CommandTimeoutFor(deviceType string) time.Duration {
	if d, ok := c.DeviceDefaults[deviceType]; ok && d.CommandTimeout > 0 {
		return d.CommandTimeout
	}
	return c.Provision.CommandTimeout
}

// InterCommandDelayFor 返回指定设备类型的命令间隔
func (c *Config) InterCommandDelayFor(deviceType string) time.Duration {
	if d, ok := c.DeviceDefaults[deviceType]; ok && d.InterCommandDelay > 0 {
		return d.InterCommandDelay
	}
	return c.Provision.InterCommandDelay
}

// FailureKeywordsFor 返回全局与平台级合并后的失败关键字
func (c *Config) FailureKeywordsFor(deviceType string) []string {
	out := append([]string{}, c.Provision.FailureKeywords...)
	if d, ok := c.DeviceDefaults[deviceType]; ok {
		out = append(out, d.ErrorHints...)
	}
	return out
}
