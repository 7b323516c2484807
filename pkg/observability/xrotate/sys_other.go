//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package xrotate

import "os"

// lockFile 在不支持 flock 的平台上为空操作
func lockFile(*os.File) error { return nil }

// unlockFile 在不支持 flock 的平台上为空操作
func unlockFile(*os.File) error { return nil }

// isWritable 根据所有者写权限位近似判断
func isWritable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o200 != 0
}
