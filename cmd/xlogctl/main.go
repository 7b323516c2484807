// xlogctl 是 xlogkit 日志配置与轮转文件的命令行工具。
//
// 用法:
//
//	xlogctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   日志配置文件路径（默认读取 XLOGCTL_CONFIG，再默认 xlog.yaml）
//	    --root     Logger 定义所在的顶层键（默认 logger）
//
// 命令:
//
//	validate              组装配置中的全部 Logger 并报告错误
//	list                  列出配置中的 Logger 与可用插件标识
//	write <logger> <msg>  通过指定 Logger 写一条记录
//	rotate <file>         立即轮转一个活动日志文件
//	decompress <file.gz>  解压一个已轮转的归档
//	watch                 监视配置文件，每次变更后重新校验
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（配置无效、写入失败等）
//	2: 参数错误
//
// 示例:
//
//	xlogctl -c /etc/app/xlog.yaml validate
//	xlogctl write app "deploy finished" --level notice --attr version=1.4.2
//	xlogctl rotate /var/log/app.log --compression 6
//	xlogctl decompress /var/log/app-20261016.log.gz -o app.log
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogkit/internal/di"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xlogctl",
		Usage:     "xlogkit 日志配置与轮转文件工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "日志配置文件路径（覆盖 XLOGCTL_CONFIG）",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Logger 定义所在的顶层键（覆盖 XLOGCTL_ROOT）",
			},
		},
		Commands: createCommands(),
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
		Description: "环境变量:\n" + di.EnvUsage(),
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	return exitCode(createApp(stdout, stderr).Run(ctx, args), stderr)
}

// exitCode 将命令错误映射为退出码。
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 自身产生的参数错误（未知 flag、flag 值非法等）。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"invalid value",
		"flag needs an argument",
		"No help topic for",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
