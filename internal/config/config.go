package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/AnnoRes/internal/domain"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeInvalidResolution 表示宽/高超出 uint32 范围。
	ErrCodeInvalidResolution = domain.ErrCodeInvalidResolution
)

// FileName 是游戏目录下可选的配置文件名。
const FileName = "annores.json"

// CLIArgs 保留“是否显式指定”的信息，保证 CLI 能覆盖配置文件。
// Width/Height 在 CLI 层已经过范围校验。
type CLIArgs struct {
	Path string

	Width    uint32
	WidthSet bool

	Height    uint32
	HeightSet bool
}

// FileConfig 对应 annores.json 的解析结构。
// 用 int64 接收，越界（负数/超过 uint32）时报 invalid_resolution 而不是 JSON 错误。
type FileConfig struct {
	Width  *int64 `json:"width"`
	Height *int64 `json:"height"`
}

// EffectiveConfig 是合并后的最终配置（实现层直接消费）。
type EffectiveConfig struct {
	// Path 是游戏目录（绝对路径）。
	Path string

	Old    domain.Resolution
	Target domain.Resolution
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%q：%v", e.Code, e.Path, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if domain.IsInvalidResolution(err) {
		return ErrCodeInvalidResolution
	}
	return ""
}

// LoadEffective 确定游戏目录并读取其中可选的 annores.json，与 CLI 参数合并。
//
// 规则（固定）：
// - path：CLI path > cwd
// - width/height：CLI > annores.json > domain.DefaultTarget（宽高各自独立合并）
// - 旧分辨率与文件名不可配置
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	root := cwdAbs
	if strings.TrimSpace(cli.Path) != "" {
		root = absCleanFrom(cwdAbs, cli.Path)
	}

	cfgPath := filepath.Join(root, FileName)
	var fc FileConfig
	// 游戏目录不存在/不是目录时跳过配置文件，由 run 阶段报告 file_not_found。
	if fi, e := os.Stat(root); e == nil && fi.IsDir() {
		fc, _, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	return merge(root, cli, fc, cfgPath)
}

func merge(root string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	w := int64(domain.DefaultTarget.Width)
	h := int64(domain.DefaultTarget.Height)

	if cli.WidthSet {
		w = int64(cli.Width)
	} else if fc.Width != nil {
		w = *fc.Width
	}
	if cli.HeightSet {
		h = int64(cli.Height)
	} else if fc.Height != nil {
		h = *fc.Height
	}

	target, err := domain.NewResolution(w, h)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalidResolution, Path: cfgPath, Err: err}
	}

	return EffectiveConfig{
		Path:   root,
		Old:    domain.OldResolution,
		Target: target,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
