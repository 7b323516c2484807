// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 当前实现
//
//   - [NewSize]: 按大小轮转，日期+序号命名，可选 gzip 压缩，可选咨询锁
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转，带备份数量/天数清理
//
// # 组成
//
//   - [Policy]: 纯决策逻辑，判断是否轮转并计算轮转文件名
//   - [FileAppender]: 向固定路径追加字节，惰性打开，可选 flock
//   - [SizeRotator]: 持有 FileAppender，在每次写入前咨询 Policy 并执行轮转
//
// # 轮转文件名
//
// 默认模板 "{fileName}-{date}"，日期格式 "20060102"：
//
//	/var/log/app.log → /var/log/app-20261016.log
//	                 → /var/log/app-20261016-1.log（同日第二次）
//	                 → /var/log/app-20261016-2.log.gz（启用压缩）
//
// 目标文件已存在时序号递增，已轮转的文件永远不会被覆盖。
//
// # 错误语义
//
// 打开或追加活动文件失败会从 Write 返回；轮转内务（重命名、压缩）失败被吞掉，
// 只通过 [WithSizeOnError] 回调和 OpenTelemetry 指标暴露，日志管道保持可写。
//
// # 多进程
//
// 多个进程共享同一路径时轮转是尽力而为的：命名检查与 rename 之间存在竞态，
// [WithLocking] 的咨询锁只覆盖单次追加，能缓解但不能消除竞态。
package xrotate
