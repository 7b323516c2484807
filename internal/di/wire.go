//go:build wireinject

package di

import "github.com/google/wire"

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

// ProviderSet 汇总 xlogctl 的全部 Provider。
var ProviderSet = wire.NewSet(
	ProvideDiagnostics,
	ProvideConfig,
	ProvideErrorHook,
	ProvideFactory,
	wire.Struct(new(App), "*"),
)

// InitializeApp 根据环境参数组装 App，返回的 cleanup 关闭诊断 Logger。
func InitializeApp(env Env) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
