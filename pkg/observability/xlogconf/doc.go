// Package xlogconf 根据声明式配置组装 xlog Logger。
//
// # 配置结构
//
// 配置可以来自 YAML/JSON 文件（Load）、字节数据（LoadBytes）或内存映射（LoadMap），
// Logger 定义位于顶层键 "logger" 之下（可通过 WithRoot 修改）：
//
//	logger:
//	  app:
//	    channel: default
//	    level: info
//	    handlers:
//	      - type: rotating_file_size
//	        options:
//	          filename: /var/log/app.log
//	          filesize: 1.0
//	          compression: 6
//	          minSeverity: debug
//	          bubble: true
//	          filePermission: "0644"
//	          useAdvisoryLocking: false
//	        formatter:
//	          type: line
//	          options: {format: "[%datetime%] %channel%.%level_name%: %message%\n"}
//	    processors: [uid, pid]
//
// # 插件注册表
//
// handler、formatter、processor 均通过 Registry 按字符串标识构造，
// 未注册的标识直接报错（ErrUnknownPlugin）。内置标识：
//
//   - handler: rotating_file_size, stream, lumberjack, null
//   - formatter: line, json
//   - processor: uid, pid, hostname, trace
//
// 插件选项通过 mapstructure 解码：允许弱类型（"true"、"0.5"），拒绝未知键，
// 级别按名称解析（不区分大小写），文件权限接受八进制字符串或整数。
//
// handlers 按书写顺序分发：排在前面的 handler 先处理，bubble 为 false 时
// 后面的 handler 不再收到该记录。processors 同样按书写顺序执行。
//
// LoadMap 的条目可以直接放入已构造的 xlog.Handler、xlog.Formatter、xlog.Processor。
//
// # 错误时机
//
// 所有配置错误都在 Factory.Create 返回，内置 handler 构造时不打开任何文件，
// 因此缺少 filename 等错误不会在磁盘上留下痕迹。
//
// # 热重载
//
// Watch 监视配置文件所在目录，防抖后重新解析并用 ValidateConfig 校验，
// 校验失败时保留旧配置并通过回调报告错误。已创建的 Logger 不受影响，
// 新配置只作用于之后的 Factory.Create。
package xlogconf
