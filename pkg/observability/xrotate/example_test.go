package xrotate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

func ExampleNewSize() {
	tmpDir, err := os.MkdirTemp("", "xrotate-example-*")
	if err != nil {
		fmt.Println("创建临时目录失败:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	r, err := xrotate.NewSize(filepath.Join(tmpDir, "app.log"),
		xrotate.WithMaxSizeMB(0.5), // 512KB 触发轮转
		xrotate.WithCompression(6), // 轮转文件 gzip 压缩
		xrotate.WithSizeOnError(func(err error) {
			// 注意：不要向同一 Rotator 写入，避免死锁
			fmt.Fprintf(os.Stderr, "xrotate housekeeping: %v\n", err)
		}),
	)
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}
	defer r.Close()

	_, _ = r.Write([]byte("hello xrotate\n"))
	fmt.Println("写入成功")
	// Output: 写入成功
}

func ExamplePolicy_RotatedName() {
	p := xrotate.Policy{CompressionLevel: 1}
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	fmt.Println(p.RotatedName("/var/log/app.log", day, 0))
	fmt.Println(p.RotatedName("/var/log/app.log", day, 2))
	// Output:
	// /var/log/app-20261016.log.gz
	// /var/log/app-20261016-2.log.gz
}

func ExampleNewLumberjack() {
	tmpDir, err := os.MkdirTemp("", "xrotate-example-*")
	if err != nil {
		fmt.Println("创建临时目录失败:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	r, err := xrotate.NewLumberjack(filepath.Join(tmpDir, "app.log"),
		xrotate.WithMaxSize(100),   // 100MB 触发轮转
		xrotate.WithMaxBackups(7),  // 保留 7 个备份
		xrotate.WithMaxAge(30),     // 保留 30 天
		xrotate.WithCompress(true), // 压缩备份
	)
	if err != nil {
		fmt.Println("创建失败:", err)
		return
	}
	defer r.Close()

	_, _ = r.Write([]byte("hello lumberjack\n"))
	fmt.Println("写入成功")
	// Output: 写入成功
}
