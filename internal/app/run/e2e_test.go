package run

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/AnnoRes/internal/config"
	"github.com/John-Robertt/AnnoRes/internal/domain"
)

var plantedOffsets = []int{64, 1000, 4000}

// newGameDir 准备一个最小游戏目录：DLL 中在固定偏移埋入 3 次 1280x1024 模式，
// Texte.dat 含一行 1280x1024（LF 行尾 + 一个 Latin-1 字符）。
func newGameDir(t *testing.T) (dir string, dll, text []byte) {
	t.Helper()
	dir = t.TempDir()

	dll = make([]byte, 8192)
	for i := range dll {
		dll[i] = byte(i * 13)
	}
	for i, off := range plantedOffsets {
		binary.LittleEndian.PutUint32(dll[off:], 1280)
		copy(dll[off+4:off+8], []byte{byte(i), 0xAA, 0xBB, 0xCC})
		binary.LittleEndian.PutUint32(dll[off+8:], 1024)
	}
	text = []byte("Aufl\xf6sung\n800x600\n1280x1024\nEnde\n")

	writeFile(t, filepath.Join(dir, domain.BinaryName), dll)
	writeFile(t, filepath.Join(dir, domain.TextName), text)
	return dir, dll, text
}

func effFor(dir string) config.EffectiveConfig {
	return config.EffectiveConfig{
		Path:   dir,
		Old:    domain.OldResolution,
		Target: domain.Resolution{Width: 1366, Height: 768},
	}
}

func TestExecute_EndToEnd_ThreeCandidatesAndText(t *testing.T) {
	dir, dll, text := newGameDir(t)

	rr := Execute(effFor(dir))
	if !rr.OK() {
		t.Fatalf("不期望失败：%s %s", rr.ErrorCode, rr.ErrorMsg)
	}
	if len(rr.Candidates) != 3 {
		t.Fatalf("期望 3 个候选，实际 %d", len(rr.Candidates))
	}
	if len(rr.Warnings) != 0 {
		t.Fatalf("不期望 warning：%+v", rr.Warnings)
	}

	for i, off := range plantedOffsets {
		name := domain.PatchedBinaryName(i + 1)
		if rr.Candidates[i].File != name || rr.Candidates[i].Offset != off {
			t.Fatalf("候选 %d 报告错误：%+v", i+1, rr.Candidates[i])
		}
		got := readFile(t, filepath.Join(dir, name))
		if len(got) != len(dll) {
			t.Fatalf("%s 长度应与原文件一致", name)
		}
		for k := range dll {
			if k >= off && k < off+domain.PatternLen {
				continue
			}
			if got[k] != dll[k] {
				t.Fatalf("%s 在偏移 %d 处不应改变", name, k)
			}
		}
		if w := binary.LittleEndian.Uint32(got[off:]); w != 1366 {
			t.Fatalf("%s 宽字段错误：%d", name, w)
		}
		if !bytes.Equal(got[off+4:off+8], dll[off+4:off+8]) {
			t.Fatalf("%s 中间字节应原样保留", name)
		}
		if h := binary.LittleEndian.Uint32(got[off+8:]); h != 768 {
			t.Fatalf("%s 高字段错误：%d", name, h)
		}
	}

	gotText := readFile(t, filepath.Join(dir, domain.PatchedTextName))
	wantText := []byte("Aufl\xf6sung\r\n800x600\r\n1366x768\r\nEnde\r\n")
	if !bytes.Equal(gotText, wantText) {
		t.Fatalf("%s 内容错误：%q", domain.PatchedTextName, gotText)
	}
	if rr.Text == nil || rr.Text.Replaced != 1 {
		t.Fatalf("text 报告错误：%+v", rr.Text)
	}

	// 原始输入必须逐字节不变。
	if !bytes.Equal(readFile(t, filepath.Join(dir, domain.BinaryName)), dll) {
		t.Fatalf("%s 被修改了", domain.BinaryName)
	}
	if !bytes.Equal(readFile(t, filepath.Join(dir, domain.TextName)), text) {
		t.Fatalf("%s 被修改了", domain.TextName)
	}

	// 不应有第 4 个候选。
	if _, err := os.Stat(filepath.Join(dir, domain.PatchedBinaryName(4))); !os.IsNotExist(err) {
		t.Fatalf("不应生成第 4 个候选：%v", err)
	}
}

func TestExecute_NoMatch_WritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.BinaryName), bytes.Repeat([]byte{0x90}, 512))
	writeFile(t, filepath.Join(dir, domain.TextName), []byte("x\n1280x1024\n"))

	rr := Execute(effFor(dir))
	if rr.ErrorCode != domain.ErrCodeNoMatchFound || rr.Status != domain.StatusFailed {
		t.Fatalf("期望 no_match_found，实际 %q (%s)", rr.ErrorCode, rr.Status)
	}
	if rr.File != domain.BinaryName {
		t.Fatalf("错误应指向 %s，实际 %q", domain.BinaryName, rr.File)
	}
	if len(rr.Candidates) != 0 {
		t.Fatalf("不应有候选：%+v", rr.Candidates)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir 失败：%v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("零命中时不应写出任何文件，实际目录内容 %d 项", len(entries))
	}
}

func TestExecute_MissingInputs(t *testing.T) {
	dir := t.TempDir()
	rr := Execute(effFor(dir))
	if rr.ErrorCode != domain.ErrCodeFileNotFound || rr.File != domain.BinaryName {
		t.Fatalf("期望 %s file_not_found，实际 %q %q", domain.BinaryName, rr.ErrorCode, rr.File)
	}

	writeFile(t, filepath.Join(dir, domain.BinaryName), []byte("x"))
	rr = Execute(effFor(dir))
	if rr.ErrorCode != domain.ErrCodeFileNotFound || rr.File != domain.TextName {
		t.Fatalf("期望 %s file_not_found，实际 %q %q", domain.TextName, rr.ErrorCode, rr.File)
	}
}

func TestExecute_LabelNotFound_IsWarning(t *testing.T) {
	dir, _, _ := newGameDir(t)
	writeFile(t, filepath.Join(dir, domain.TextName), []byte("nur\ntext\n"))

	rr := Execute(effFor(dir))
	if !rr.OK() {
		t.Fatalf("label_not_found 不应致命：%s %s", rr.ErrorCode, rr.ErrorMsg)
	}
	if len(rr.Warnings) != 1 || rr.Warnings[0].Code != domain.ErrCodeLabelNotFound {
		t.Fatalf("期望一个 label_not_found warning，实际 %+v", rr.Warnings)
	}
	got := readFile(t, filepath.Join(dir, domain.PatchedTextName))
	if string(got) != "nur\r\ntext\r\n" {
		t.Fatalf("文本仍应写出（仅规范化行尾）：%q", got)
	}
	if len(rr.Candidates) != 3 {
		t.Fatalf("DLL 候选仍应写出，实际 %d", len(rr.Candidates))
	}
}

func TestExecute_OutputConflict(t *testing.T) {
	dir, _, _ := newGameDir(t)
	// 第 2 个候选的目标路径被目录占用。
	if err := os.Mkdir(filepath.Join(dir, domain.PatchedBinaryName(2)), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	rr := Execute(effFor(dir))
	if rr.ErrorCode != domain.ErrCodeIOFailed || rr.File != domain.PatchedBinaryName(2) {
		t.Fatalf("期望 io_failed 指向第 2 个候选，实际 %q %q", rr.ErrorCode, rr.File)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	return b
}
