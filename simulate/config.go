package simulate

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadProfile 从YAML文件读取模拟设备定义
func LoadProfile(path string) (DeviceProfile, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("family", FamilyCiscoIOS)
	v.SetDefault("hostname", "Switch")
	v.SetDefault("password", "switch")
	v.SetDefault("enable_secret", "")
	v.SetDefault("page_size", 0)
	v.SetDefault("keygen_delay", 2*time.Second)

	if err := v.ReadInConfig(); err != nil {
		return DeviceProfile{}, fmt.Errorf("failed to read simulate profile: %w", err)
	}

	return DeviceProfile{
		Family:       v.GetString("family"),
		Hostname:     v.GetString("hostname"),
		Password:     v.GetString("password"),
		EnableSecret: v.GetString("enable_secret"),
		PageSize:     v.GetInt("page_size"),
		KeygenDelay:  v.GetDuration("keygen_delay"),
	}, nil
}
