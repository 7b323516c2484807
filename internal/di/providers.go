package di

import (
	"context"
	"os"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogconf"
)

// ErrorHook 接收日志写入失败与轮转内务错误。
type ErrorHook func(error)

// ProvideDiagnostics 创建 xlogctl 自身的诊断 Logger，输出到 stderr。
//
// 诊断 Logger 与配置中定义的 Logger 相互独立，
// 轮转内务错误通过它报告时不会回写到出错的日志文件。
func ProvideDiagnostics(env Env) (xlog.LoggerWithLevel, func(), error) {
	logger, cleanup, err := xlog.New().
		SetChannel("xlogctl").
		SetOutput(os.Stderr).
		SetLevelString(env.LogLevel).
		SetFormat(env.LogFormat).
		SetEnrich(false).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = cleanup() }, nil
}

// ProvideConfig 加载 env.ConfigPath 指定的日志配置。
func ProvideConfig(env Env) (*xlogconf.Config, error) {
	return xlogconf.Load(env.ConfigPath, xlogconf.WithRoot(env.Root))
}

// ProvideErrorHook 将错误转发到诊断 Logger。
func ProvideErrorHook(diag xlog.LoggerWithLevel) ErrorHook {
	return func(err error) {
		diag.Warn(context.Background(), "log sink error", xlog.Err(err))
	}
}

// ProvideFactory 使用内置注册表创建 Logger 工厂。
func ProvideFactory(cfg *xlogconf.Config, hook ErrorHook) *xlogconf.Factory {
	return xlogconf.NewFactory(cfg, xlogconf.WithOnError(hook))
}
