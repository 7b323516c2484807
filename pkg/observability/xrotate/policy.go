package xrotate

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 文件名模板占位符
const (
	// TokenFileName 原始文件名（不含扩展名）
	TokenFileName = "{fileName}"

	// TokenDate 轮转日期，按 DateFormat 格式化
	TokenDate = "{date}"

	// TokenRotation 同日轮转序号
	TokenRotation = "{rotation}"
)

const (
	// DefaultFileNameFormat 默认轮转文件名模板
	DefaultFileNameFormat = TokenFileName + "-" + TokenDate

	// DefaultDateFormat 默认日期格式（YYYYMMDD）
	DefaultDateFormat = "20060102"

	// CompressSuffix 压缩备份文件的后缀（不含点）
	CompressSuffix = "gz"

	// MaxCompressionLevel gzip 最大压缩级别
	MaxCompressionLevel = 9

	// MaxRotationCounter 查找可用轮转文件名时尝试的序号上限
	MaxRotationCounter = 100000

	// bytesPerMB 二进制兆字节
	bytesPerMB = 1024 * 1024
)

// MustRotate 判断当前文件是否需要轮转
//
// 文件不存在或 maxSizeMB <= 0（不限制大小）时返回 false，
// 否则仅当 sizeBytes 严格大于 maxSizeMB*1024*1024 时返回 true。
func MustRotate(exists bool, sizeBytes int64, maxSizeMB float64) bool {
	if !exists || maxSizeMB <= 0 {
		return false
	}
	return float64(sizeBytes) > maxSizeMB*bytesPerMB
}

// ClampCompression 将压缩级别限制在 [0, 9]
func ClampCompression(level int) int {
	return min(max(level, 0), MaxCompressionLevel)
}

// Policy 轮转策略
//
// 纯值类型，只负责"是否轮转"与"轮转到哪个文件名"两个决策，
// 除命名时的存在性检查外不做任何 I/O。
type Policy struct {
	// MaxSizeMB 单个文件最大大小（MB），<= 0 表示不限制
	MaxSizeMB float64

	// CompressionLevel gzip 压缩级别，0 表示不压缩
	CompressionLevel int

	// FileNameFormat 轮转文件名模板，空值使用 DefaultFileNameFormat
	FileNameFormat string

	// DateFormat Go 时间格式，空值使用 DefaultDateFormat
	DateFormat string
}

// MustRotate 按策略阈值判断是否需要轮转
func (p Policy) MustRotate(exists bool, sizeBytes int64) bool {
	return MustRotate(exists, sizeBytes, p.MaxSizeMB)
}

// Compress 是否压缩轮转后的文件
func (p Policy) Compress() bool {
	return ClampCompression(p.CompressionLevel) > 0
}

// RotatedName 计算轮转目标文件名
//
// 规则：
//   - base 拆分为目录、文件名主干、扩展名
//   - counter > 0 且模板不含 {rotation} 时，在模板末尾追加 "-{rotation}"
//   - counter == 0 时不出现任何序号
//   - 有扩展名时重新追加扩展名，启用压缩时再追加 ".gz"
//
// 相同输入总是得到相同输出。
func (p Policy) RotatedName(base string, t time.Time, counter int) string {
	pattern := p.FileNameFormat
	if pattern == "" {
		pattern = DefaultFileNameFormat
	}
	dateFormat := p.DateFormat
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}

	if counter > 0 && !strings.Contains(pattern, TokenRotation) {
		pattern += "-" + TokenRotation
	}

	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(filepath.Base(base), ext)

	// 单次替换，避免文件名主干中出现的占位符被二次展开
	name := strings.NewReplacer(
		TokenFileName, stem,
		TokenDate, t.Format(dateFormat),
		TokenRotation, strconv.Itoa(counter),
	).Replace(pattern)

	name += ext
	if p.Compress() {
		name += "." + CompressSuffix
	}
	return filepath.Join(dir, name)
}

// NextAvailableName 查找第一个不存在的轮转文件名
//
// 从 counter=0 开始递增，直到 exists 返回 false。
// 多进程同时轮转时存在竞态（检查与 rename 之间），咨询锁只能缓解。
// 超过 MaxRotationCounter 仍未找到时返回 ErrRotationExhausted。
func (p Policy) NextAvailableName(base string, t time.Time, exists func(string) bool) (string, error) {
	for counter := 0; counter < MaxRotationCounter; counter++ {
		name := p.RotatedName(base, t, counter)
		if !exists(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s after %d candidates", ErrRotationExhausted, base, MaxRotationCounter)
}
