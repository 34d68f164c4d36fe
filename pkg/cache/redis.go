package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"
)

var (
	rdb     *redis.Client
	factTTL time.Duration
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = fmt.Errorf("cache miss")

// InitRedis 初始化Redis设备事实缓存，Host为空表示禁用
func InitRedis(cfg config.RedisConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil
	}

	rdb = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	factTTL = cfg.FactTTL
	if factTTL <= 0 {
		factTTL = 24 * time.Hour
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized successfully")
	return nil
}

// Enabled 返回缓存是否可用
func Enabled() bool {
	return rdb != nil
}

// Close 关闭Redis连接
func Close() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// Set 设置缓存
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if rdb == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存并反序列化到dest
func Get(ctx context.Context, key string, dest interface{}) error {
	if rdb == nil {
		return ErrCacheMiss
	}
	data, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get value: %w", err)
	}
	return json.Unmarshal([]byte(data), dest)
}

// Del 删除缓存
func Del(ctx context.Context, keys ...string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// DeviceFact 设备识别事实，分类与巡检结果的缓存结构
type DeviceFact struct {
	DeviceType    string    `json:"device_type"`
	VersionBanner string    `json:"version_banner"`
	ClassifiedAt  time.Time `json:"classified_at"`
}

func factKey(target string) string {
	return "device_fact:" + strings.TrimSpace(strings.ToLower(target))
}

// PutDeviceFact 写入设备识别事实
func PutDeviceFact(ctx context.Context, target string, fact DeviceFact) error {
	return Set(ctx, factKey(target), fact, factTTL)
}

// GetDeviceFact 读取设备识别事实，未命中返回 ErrCacheMiss
func GetDeviceFact(ctx context.Context, target string) (DeviceFact, error) {
	var fact DeviceFact
	err := Get(ctx, factKey(target), &fact)
	return fact, err
}

// DropDeviceFact 失效指定设备的识别事实（设备重配置后调用）
func DropDeviceFact(ctx context.Context, target string) error {
	return Del(ctx, factKey(target))
}

// Health 检查Redis健康状态
func Health(ctx context.Context) error {
	if rdb == nil {
		return fmt.Errorf("redis not initialized")
	}
	_, err := rdb.Ping(ctx).Result()
	return err
}

// GetStats 获取Redis统计信息
func GetStats() map[string]interface{} {
	if rdb == nil {
		return nil
	}
	poolStats := rdb.PoolStats()
	return map[string]interface{}{
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"timeouts":    poolStats.Timeouts,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}
}
