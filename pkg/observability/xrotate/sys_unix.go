//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package xrotate

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile 对已打开的文件加咨询排他锁（flock），阻塞直到获得锁
//
// 咨询锁只约束同样使用 flock 的参与者，不阻止其他进程直接写入。
func lockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

// unlockFile 释放 lockFile 获得的锁
func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// isWritable 当前进程是否可以写入 path
func isWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
