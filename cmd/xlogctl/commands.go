package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogkit/internal/di"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xlogconf"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// exitError 表示命令已完成输出，只需设置非零退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 表示参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createValidateCommand(),
		createListCommand(),
		createWriteCommand(),
		createRotateCommand(),
		createDecompressCommand(),
		createWatchCommand(),
	}
}

// loadApp 读取环境变量，应用命令行覆盖后组装依赖。
func loadApp(cmd *cli.Command) (*di.App, func(), error) {
	env, err := di.LoadEnv()
	if err != nil {
		return nil, nil, err
	}
	if cmd.IsSet("config") {
		env.ConfigPath = cmd.String("config")
	}
	if cmd.IsSet("root") {
		env.Root = cmd.String("root")
	}
	return di.InitializeApp(env)
}

// =============================================================================
// validate / list
// =============================================================================

func createValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "组装配置中的全部 Logger 并报告错误",
		Action: func(_ context.Context, cmd *cli.Command) error {
			app, cleanup, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return cmdValidate(cmd.Root().Writer, app.Factory)
		},
	}
}

func cmdValidate(w io.Writer, factory *xlogconf.Factory) error {
	names := factory.Config().Names()
	if len(names) == 0 {
		fmt.Fprintf(w, "未定义任何 Logger（顶层键 %q）\n", factory.Config().Root())
		return &exitError{code: 1}
	}

	failed := 0
	for _, name := range names {
		if err := factory.ValidateLogger(name); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", name)
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func createListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "列出配置中的 Logger 与可用插件标识",
		Action: func(_ context.Context, cmd *cli.Command) error {
			app, cleanup, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			cmdList(cmd.Root().Writer, app.Factory)
			return nil
		},
	}
}

func cmdList(w io.Writer, factory *xlogconf.Factory) {
	fmt.Fprintln(w, "loggers:")
	for _, name := range factory.Config().Names() {
		mark := " "
		if !factory.CanCreate(name) {
			mark = "!"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, name)
	}
	fmt.Fprintf(w, "handlers:   %s\n", strings.Join(factory.Handlers().Names(), ", "))
	fmt.Fprintf(w, "formatters: %s\n", strings.Join(factory.Formatters().Names(), ", "))
	fmt.Fprintf(w, "processors: %s\n", strings.Join(factory.Processors().Names(), ", "))
}

// =============================================================================
// write
// =============================================================================

func createWriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "通过指定 Logger 写一条记录",
		ArgsUsage: "<logger> <message...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "记录级别（debug/info/notice/warning/error/critical/alert/emergency）",
				Value:   "info",
			},
			&cli.StringSliceFlag{
				Name:    "attr",
				Aliases: []string{"a"},
				Usage:   "附加字段 key=value，可重复",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := parseWriteArgs(cmd.Args().Slice(), cmd.String("level"), cmd.StringSlice("attr"))
			if err != nil {
				return err
			}
			app, cleanup, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return cmdWrite(ctx, app.Factory, req)
		},
	}
}

type writeRequest struct {
	logger  string
	message string
	level   xlog.Level
	attrs   []slog.Attr
}

func parseWriteArgs(args []string, level string, attrs []string) (writeRequest, error) {
	if len(args) < 2 {
		return writeRequest{}, usagef("write 需要 <logger> 和 <message>")
	}
	lvl, err := xlog.ParseLevel(level)
	if err != nil {
		return writeRequest{}, usagef("%v", err)
	}

	req := writeRequest{
		logger:  args[0],
		message: strings.Join(args[1:], " "),
		level:   lvl,
	}
	for _, kv := range attrs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return writeRequest{}, usagef("无效的字段 %q，应为 key=value", kv)
		}
		req.attrs = append(req.attrs, slog.String(strings.TrimSpace(k), v))
	}
	return req, nil
}

func cmdWrite(ctx context.Context, factory *xlogconf.Factory, req writeRequest) error {
	logger, cleanup, err := factory.Create(req.logger)
	if err != nil {
		return err
	}
	writeErr := logger.Log(ctx, req.level, req.message, req.attrs...)
	return errors.Join(writeErr, cleanup())
}

// =============================================================================
// rotate / decompress
// =============================================================================

func createRotateCommand() *cli.Command {
	return &cli.Command{
		Name:      "rotate",
		Usage:     "立即轮转一个活动日志文件",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "compression",
				Usage: "gzip 压缩级别 [0, 9]，0 表示不压缩",
			},
			&cli.StringFlag{
				Name:  "file-name-format",
				Usage: "轮转文件名模板，支持 {fileName}、{date}、{rotation}",
			},
			&cli.StringFlag{
				Name:  "date-format",
				Usage: "{date} 使用的 Go 时间格式",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return usagef("rotate 需要且仅需要一个 <file>")
			}
			return cmdRotate(cmd.Root().Writer, cmd.Args().First(),
				cmd.Int("compression"), cmd.String("file-name-format"), cmd.String("date-format"))
		},
	}
}

func cmdRotate(w io.Writer, path string, compression int, nameFormat, dateFormat string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("rotate %s: %w", path, err)
	}

	var housekeeping []error
	rotator, err := xrotate.NewSize(path,
		xrotate.WithCompression(compression),
		xrotate.WithFileNameFormat(nameFormat),
		xrotate.WithDateFormat(dateFormat),
		xrotate.WithSizeOnError(func(err error) { housekeeping = append(housekeeping, err) }),
	)
	if err != nil {
		return usagef("%v", err)
	}

	if err := errors.Join(rotator.Rotate(), rotator.Close()); err != nil {
		return err
	}
	if len(housekeeping) > 0 {
		return errors.Join(housekeeping...)
	}
	fmt.Fprintf(w, "rotated %s\n", path)
	return nil
}

func createDecompressCommand() *cli.Command {
	return &cli.Command{
		Name:      "decompress",
		Usage:     "解压一个已轮转的归档，默认输出到 stdout",
		ArgsUsage: "<file.gz>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "输出文件路径",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return usagef("decompress 需要且仅需要一个 <file.gz>")
			}
			return cmdDecompress(cmd.Root().Writer, cmd.Args().First(), cmd.String("output"))
		},
	}
}

func cmdDecompress(w io.Writer, path, output string) error {
	data, err := xrotate.Decompress(path)
	if err != nil {
		return err
	}
	if output == "" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o640)
}

// =============================================================================
// watch
// =============================================================================

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "监视配置文件，每次变更后重新校验（Ctrl+C 退出）",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, cleanup, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return cmdWatch(ctx, cmd.Root().Writer, app)
		},
	}
}

func cmdWatch(ctx context.Context, w io.Writer, app *di.App) error {
	out := &syncWriter{w: w}

	watcher, err := xlogconf.Watch(app.Config, func(cfg *xlogconf.Config, err error) {
		if err != nil {
			out.printf("reload rejected: %v\n", err)
			return
		}
		out.printf("reloaded %s: %s\n", cfg.Path(), strings.Join(cfg.Names(), ", "))
	}, xlogconf.WithDebounce(app.Env.Debounce))
	if err != nil {
		return err
	}
	watcher.StartAsync()

	out.printf("watching %s\n", app.Config.Path())
	<-ctx.Done()
	return watcher.Stop()
}

// syncWriter 串行化 watch 回调与主 goroutine 的输出。
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// setupSignalHandler 设置信号处理。
// 设计决策: 第一次信号优雅取消，第二次信号强制退出（退出码 130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
