package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// MissingFileError 表示游戏目录中缺少必需的输入文件（或游戏目录本身不存在）。
// 上层映射为 error_code=file_not_found。
type MissingFileError struct {
	Dir  string
	Name string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("缺少文件 %q（目录 %q）：%v", e.Name, e.Dir, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// IsMissingFile 判断 err 是否为 MissingFileError。
func IsMissingFile(err error) bool {
	var e *MissingFileError
	return errors.As(err, &e)
}

// PathTypeConflictError 表示路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// ReadInput 完整读取 dir/name 到内存（输入文件最多几百 KB）。
//
// - 文件或目录不存在：*MissingFileError
// - 目标是目录：*PathTypeConflictError
// - 其他错误原样返回
func ReadInput(dir, name string) ([]byte, error) {
	p := filepath.Join(dir, name)
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &MissingFileError{Dir: dir, Name: name, Err: err}
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, &PathTypeConflictError{Path: p, Want: "file", Got: "dir"}
	}
	return os.ReadFile(p)
}

// WriteFileAtomic 在 dir 下原子写入 name（同目录临时文件 + rename），已存在则覆盖。
//
// 重复运行时会覆盖上一次的 *_patched 产物；中途失败不会留下写了一半的文件。
// 目标若是目录则返回 *PathTypeConflictError。
func WriteFileAtomic(dir, name string, data []byte) error {
	dst := filepath.Join(dir, name)
	if fi, err := os.Lstat(dst); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	return writeFileAtomic(dir, name, data, 0o644)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	dst := filepath.Join(dir, name)

	// 临时文件带 '.' 前缀，避免出现在游戏目录的常规视图里。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
