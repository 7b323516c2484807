package xrotate

import "io"

// Rotator 是可轮转的日志输出，可直接交给 xlog 的 WriteCloser Handler
//
// 实现必须并发安全。打开或追加活动文件失败从 Write 返回；
// 轮转内务（重命名、压缩）失败只通过 OnError 回调和指标报告。
// Close 之后 Write、Rotate、Close 都返回 ErrClosed。
type Rotator interface {
	io.WriteCloser

	// Rotate 立即把活动文件移走，下次写入重新创建
	Rotate() error
}

var (
	_ Rotator = (*SizeRotator)(nil)
	_ Rotator = (*lumberjackRotator)(nil)
)
