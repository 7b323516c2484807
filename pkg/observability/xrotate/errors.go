package xrotate

import "errors"

// 构造错误
var (
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidPath 目录路径、含空字节或相对路径穿越
	ErrInvalidPath = errors.New("xrotate: invalid file path")

	ErrInvalidMaxSize    = errors.New("xrotate: invalid max size")
	ErrInvalidMaxBackups = errors.New("xrotate: invalid max backups")
	ErrInvalidMaxAge     = errors.New("xrotate: invalid max age")

	// ErrNoCleanupPolicy lumberjack 的备份数量与天数不能同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrInvalidFileMode 只允许低 9 位权限位
	ErrInvalidFileMode = errors.New("xrotate: invalid file mode")

	ErrClosed = errors.New("xrotate: rotator is closed")
)

// 轮转内务错误，只经 OnError 回调与指标报告，见 IsHousekeeping
var (
	// ErrRotateRename 常见于其他进程同时删除或轮转了活动文件
	ErrRotateRename      = errors.New("xrotate: rename rotated file failed")
	ErrRotateCompress    = errors.New("xrotate: compress rotated file failed")
	ErrRotationExhausted = errors.New("xrotate: no free rotation file name")
)
