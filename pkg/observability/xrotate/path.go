package xrotate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultDirPerm 自动创建父目录时使用的权限
const defaultDirPerm = 0o750

// sanitizePath 对日志文件路径做格式检查和规范化
//
// 拒绝空路径、空字节、显式目录路径（尾随分隔符）和相对路径穿越。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析，不视为穿越。
func sanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}
	if strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("%w: filename contains null byte", ErrInvalidPath)
	}
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("%w: %q is a directory", ErrInvalidPath, filename)
	}

	cleaned := filepath.Clean(filename)
	if !filepath.IsAbs(cleaned) && hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("%w: path traversal in %q", ErrInvalidPath, filename)
	}
	return cleaned, nil
}

// hasDotDotSegment 检测路径中是否有恰好为 ".." 的路径段
//
// 不能用 strings.Contains(path, "..")，否则会误伤 "app..2024.log" 这类文件名。
func hasDotDotSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	}) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// ensureDir 确保文件的父目录存在
func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, defaultDirPerm)
}

// validateFileMode 仅允许权限位（低 9 位）
func validateFileMode(mode os.FileMode) error {
	if mode != 0 && mode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, mode)
	}
	return nil
}

// fileExists 路径上是否存在任意文件
func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
