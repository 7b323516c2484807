package xlogconf

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

var fileModeType = reflect.TypeFor[os.FileMode]()

// decode 将选项映射解码到 target（预先填好默认值的结构体指针）。
//
// 开启弱类型转换（"true"、"1.5" 等字符串可用），未知键视为错误；
// xlog.Level 通过 UnmarshalText 解析，os.FileMode 接受八进制字符串或整数。
func decode(input any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(fileModeHook),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// fileModeHook 将 "0644"、"0o600"、"644" 这类字符串按八进制解析为 os.FileMode。
func fileModeHook(from, to reflect.Type, data any) (any, error) {
	if to != fileModeType || from.Kind() != reflect.String {
		return data, nil
	}

	s := strings.TrimSpace(reflect.ValueOf(data).String())
	if s == "" {
		return os.FileMode(0), nil
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	v, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid file mode %q", s)
	}
	return os.FileMode(v), nil
}
