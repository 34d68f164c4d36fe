package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/switchconfigpro/switchconfigpro/internal/config"
	"github.com/switchconfigpro/switchconfigpro/internal/database"
	"github.com/switchconfigpro/switchconfigpro/pkg/logger"

	_ "github.com/switchconfigpro/switchconfigpro/addone/survey/platforms/cisco_ios"
	_ "github.com/switchconfigpro/switchconfigpro/addone/survey/platforms/huawei_vrp"
	_ "github.com/switchconfigpro/switchconfigpro/addone/template/platforms/cisco_ios"
	_ "github.com/switchconfigpro/switchconfigpro/addone/template/platforms/cisco_iosxe"
	_ "github.com/switchconfigpro/switchconfigpro/addone/template/platforms/huawei_vrp"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.Config{Level: "error", Format: "text", Output: "stdout"})

	dir, err := os.MkdirTemp("", "switchconfigpro-it-*")
	if err != nil {
		os.Exit(1)
	}
	if err := database.InitSQLite(config.DatabaseConfig{Path: filepath.Join(dir, "test.db")}); err != nil {
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()

	_ = database.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}
