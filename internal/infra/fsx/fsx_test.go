package fsx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic_SuccessAndNoTempLeft(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomic(dir, "a.dll", []byte("hello")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 重复写入应覆盖。
	if err := WriteFileAtomic(dir, "a.dll", []byte("world")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "a.dll"))
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "world" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	assertNoTemp(t, dir, "a.dll")
}

func TestWriteFileAtomic_RenameFail_CleanupTemp(t *testing.T) {
	dir := t.TempDir()

	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	if err := WriteFileAtomic(dir, "a.dll", []byte("hello")); err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}

	assertNoTemp(t, dir, "a.dll")
	if _, err := os.Stat(filepath.Join(dir, "a.dll")); !os.IsNotExist(err) {
		t.Fatalf("不应写出最终文件：%v", err)
	}
}

func TestWriteFileAtomic_TargetIsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "a.dll"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	err := WriteFileAtomic(dir, "a.dll", []byte("hello"))
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	if err := WriteFileAtomic(dir, "a.dll", []byte("x")); err == nil {
		t.Fatalf("目录不存在时应失败（不隐式创建游戏目录）")
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Texte.dat"), []byte("abc"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}

	b, err := ReadInput(dir, "Texte.dat")
	if err != nil || string(b) != "abc" {
		t.Fatalf("读取结果错误：%q err=%v", b, err)
	}

	_, err = ReadInput(dir, "AnnoFrame.dll")
	if !IsMissingFile(err) {
		t.Fatalf("期望 MissingFileError，实际：%T %v", err, err)
	}

	_, err = ReadInput(filepath.Join(dir, "nope"), "Texte.dat")
	if !IsMissingFile(err) {
		t.Fatalf("目录不存在也应是 MissingFileError，实际：%T %v", err, err)
	}

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	_, err = ReadInput(dir, "sub")
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func assertNoTemp(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "."+name+".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}
