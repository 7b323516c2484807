package di

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Env 是 xlogctl 从环境变量读取的运行参数，命令行标志优先于环境变量。
type Env struct {
	// ConfigPath 日志配置文件路径
	ConfigPath string `env:"XLOGCTL_CONFIG" env-default:"xlog.yaml" env-description:"日志配置文件路径（.yaml/.yml/.json）"`

	// Root Logger 定义所在的顶层键
	Root string `env:"XLOGCTL_ROOT" env-default:"logger" env-description:"Logger 定义所在的顶层键"`

	// LogLevel xlogctl 自身诊断日志的级别
	LogLevel string `env:"XLOGCTL_LOG_LEVEL" env-default:"warn" env-description:"xlogctl 诊断日志级别"`

	// LogFormat xlogctl 自身诊断日志的格式（line/json）
	LogFormat string `env:"XLOGCTL_LOG_FORMAT" env-default:"line" env-description:"xlogctl 诊断日志格式"`

	// Debounce watch 命令的防抖时间
	Debounce time.Duration `env:"XLOGCTL_DEBOUNCE" env-default:"100ms" env-description:"watch 防抖时间"`
}

// LoadEnv 读取环境变量，未设置的字段使用 env-default。
func LoadEnv() (Env, error) {
	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return Env{}, fmt.Errorf("di: read env: %w", err)
	}
	return env, nil
}

// EnvUsage 返回环境变量说明，用于命令帮助。
func EnvUsage() string {
	var env Env
	usage, err := cleanenv.GetDescription(&env, nil)
	if err != nil {
		return ""
	}
	return usage
}
