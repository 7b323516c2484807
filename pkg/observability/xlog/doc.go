// Package xlog 基于 log/slog 的多 Handler 结构化日志库。
//
// # 核心模型
//
// Logger 的 slog.Handler 是一个 [Stack]：把 slog.Record 转换为 [Record]
// （级别、级别名、消息、context、channel、时间、extra），依次执行 [Processor]，
// 再按注册顺序交给各个 [Handler]。每个 Handler 有独立的最低级别和冒泡设置：
// Bubble 为 false 的 Handler 处理后，记录不再传递给后续 Handler。
//
// # 内置组件
//
//   - Handler: [WriterHandler]、[NewStreamHandler]（stderr/stdout/文件）、
//     [RotatingFileSizeHandler]（按大小轮转、可选 gzip）、[NullHandler]
//   - Formatter: [LineFormatter]、[JSONFormatter]
//   - Processor: [NewUIDProcessor]、[PIDProcessor]、[HostnameProcessor]、[TraceProcessor]
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins）：
//
//	h, err := xlog.NewRotatingFileSizeHandler(xlog.DefaultRotatingFileSizeConfig("/var/log/app.log"))
//	if err != nil {
//	    return err
//	}
//	logger, cleanup, err := xlog.New().
//	    SetChannel("app").
//	    PushHandler(h).
//	    PushProcessor(xlog.PIDProcessor()).
//	    Build()
//	defer cleanup()
//
// 没有 PushHandler 时使用写入 stderr 的默认 Handler（SetOutput/SetFormat/SetRotation 可调整）。
// 从声明式配置组装 Logger 见 xlogconf 包。
//
// # 错误处理
//
// 便捷方法（Debug/Info/Warn/Error/Stack）不返回错误，写入失败交给 [Builder.SetOnError]；
// [Logger.Log] 直接返回写入错误。
//
// # 日志级别
//
// DEBUG(-4)、INFO(0)、NOTICE(2)、WARN(4)、ERROR(8)、CRITICAL(12)、ALERT(16)、EMERGENCY(20)。
// [ParseLevel] 大小写不敏感，接受 warning 作为 WARN 的别名。
//
// # 全局 Logger
//
// 适用于脚手架、小工具等简单场景，服务端推荐依赖注入：
// [Default]、[SetDefault]、[ResetDefault]，以及 [Debug]、[Info]、[Warn]、[Error]、[Stack]、[Log]。
//
// # EnrichHandler 注意事项
//
// 对启用了 enrich 的 logger 调用 WithGroup 时，trace_id 等注入字段会被归入 group 下。
// 需要顶层字段时使用 [TraceProcessor]。
package xlog
