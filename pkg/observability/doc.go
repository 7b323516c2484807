// Package observability 提供日志相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持 handler 栈与 processor
//   - xrotate: 日志文件轮转，按大小触发并可 gzip 压缩
//   - xlogconf: 从 YAML/JSON 配置组装具名 Logger，支持插件注册与热重载
//
// 依赖方向: xlogconf → xlog → xrotate。
package observability
