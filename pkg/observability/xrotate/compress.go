package xrotate

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// gzipBytes 以指定级别压缩数据
func gzipBytes(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compressInPlace 将 path 的内容替换为其 gzip 压缩结果
//
// 先完整读入内存再压缩，压缩结果写入同目录临时文件后 rename 覆盖原文件，
// 中途失败时 path 保持未压缩的原始内容。
// 文件不可写时跳过（返回 nil）。
func compressInPlace(path string, level int) error {
	//#nosec G304 -- path 由轮转策略生成
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	compressed, err := gzipBytes(data, level)
	if err != nil {
		return err
	}

	if !isWritable(path) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cause
	}

	if _, err := tmp.Write(compressed); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Decompress 读取 gzip 压缩的轮转文件并返回原始内容
func Decompress(path string) ([]byte, error) {
	//#nosec G304 -- 调用方指定的轮转文件
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("xrotate: open gzip %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("xrotate: read gzip %s: %w", path, err)
	}
	return data, nil
}
