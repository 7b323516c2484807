package di

import (
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogconf"
)

// App 持有 xlogctl 命令共享的依赖，由 InitializeApp 组装。
//
// 新增依赖时：在 App 中加字段，在 providers.go 中加 Provider，
// 加入 wire.go 的 ProviderSet，然后运行 go generate ./internal/di/...
type App struct {
	Env Env

	// Config 当前日志配置
	Config *xlogconf.Config

	// Factory 按名称组装配置中的 Logger
	Factory *xlogconf.Factory

	// Diagnostics xlogctl 自身的诊断输出
	Diagnostics xlog.LoggerWithLevel
}
