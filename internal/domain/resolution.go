package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Resolution 是一个分辨率值（宽 x 高），构造后不可变。
//
// 两种表示：
// - 二进制：小端 4 字节宽 + 小端 4 字节高（DLL 中两者之间还夹着 4 个未知字节）
// - 文本：WIDTHxHEIGHT（菜单标签，也用于定位 Texte.dat 中的行）
type Resolution struct {
	Width  uint32
	Height uint32
}

// PatternLen 是 DLL 中一次匹配的长度：宽(4) + 中间未知字节(4) + 高(4)。
const PatternLen = 12

// OldResolution 是原版 AnnoFrame.dll 中硬编码、将被覆盖的最大分辨率。
var OldResolution = Resolution{Width: 1280, Height: 1024}

// KnownGood 是已知可用的目标分辨率（最后一项为默认值）。
var KnownGood = []Resolution{
	{Width: 1280, Height: 800},
	{Width: 1366, Height: 768},
	{Width: 1400, Height: 1050},
	{Width: 1440, Height: 900},
	{Width: 1600, Height: 900},
}

// DefaultTarget 是 CLI 与配置文件都未指定时的目标分辨率。
var DefaultTarget = KnownGood[len(KnownGood)-1]

// InvalidResolutionError 表示宽/高超出 uint32 可表示范围（或为负数）。
type InvalidResolutionError struct {
	Width  int64
	Height int64
	// Raw 非空时表示原始输入无法解析为数字。
	Raw string
}

func (e *InvalidResolutionError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("%s：无法解析分辨率 %q（应为 WIDTHxHEIGHT）", ErrCodeInvalidResolution, e.Raw)
	}
	return fmt.Sprintf("%s：%dx%d 超出范围（宽高必须在 0..%d 之间）", ErrCodeInvalidResolution, e.Width, e.Height, uint32(math.MaxUint32))
}

// IsInvalidResolution 判断 err 是否为 InvalidResolutionError。
func IsInvalidResolution(err error) bool {
	var e *InvalidResolutionError
	return errors.As(err, &e)
}

// NewResolution 校验并构造分辨率；必须在任何文件 I/O 之前调用。
func NewResolution(width, height int64) (Resolution, error) {
	if width < 0 || height < 0 || width > math.MaxUint32 || height > math.MaxUint32 {
		return Resolution{}, &InvalidResolutionError{Width: width, Height: height}
	}
	return Resolution{Width: uint32(width), Height: uint32(height)}, nil
}

// ParseResolution 解析 "1600x900" 形态的字符串（大小写 x 均可）。
func ParseResolution(s string) (Resolution, error) {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return Resolution{}, &InvalidResolutionError{Raw: raw}
	}
	w, err := strconv.ParseInt(ws, 10, 64)
	if err != nil {
		return Resolution{}, &InvalidResolutionError{Raw: raw}
	}
	h, err := strconv.ParseInt(hs, 10, 64)
	if err != nil {
		return Resolution{}, &InvalidResolutionError{Raw: raw}
	}
	return NewResolution(w, h)
}

// String 返回菜单标签形态：十进制、无前导零、仅以 'x' 分隔。
func (r Resolution) String() string {
	return strconv.FormatUint(uint64(r.Width), 10) + "x" + strconv.FormatUint(uint64(r.Height), 10)
}

// Encode 返回 8 字节：小端宽 + 小端高（中间不含任何间隔）。
func (r Resolution) Encode() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[0:4], r.Width)
	binary.LittleEndian.PutUint32(b[4:8], r.Height)
	return b
}

// DecodeResolution 是 Encode 的逆操作，要求恰好 8 字节。
func DecodeResolution(b []byte) (Resolution, error) {
	if len(b) != 8 {
		return Resolution{}, fmt.Errorf("分辨率编码必须是 8 字节，实际 %d", len(b))
	}
	return Resolution{
		Width:  binary.LittleEndian.Uint32(b[0:4]),
		Height: binary.LittleEndian.Uint32(b[4:8]),
	}, nil
}

// Pattern 描述 DLL 中的一次出现：宽字段、4 个任意字节（需原样保留）、高字段。
type Pattern struct {
	Width  [4]byte
	Height [4]byte
}

// Pattern 返回用于在 DLL 中定位该分辨率的匹配器。
func (r Resolution) Pattern() Pattern {
	enc := r.Encode()
	var p Pattern
	copy(p.Width[:], enc[0:4])
	copy(p.Height[:], enc[4:8])
	return p
}

// Match 判断 b 的前 PatternLen 字节是否命中；命中时返回中间 4 字节。
func (p Pattern) Match(b []byte) (mid [4]byte, ok bool) {
	if len(b) < PatternLen {
		return mid, false
	}
	if [4]byte(b[0:4]) != p.Width || [4]byte(b[8:12]) != p.Height {
		return mid, false
	}
	copy(mid[:], b[4:8])
	return mid, true
}

// Patch 用新宽高 + 原样保留的中间字节拼出 12 字节替换片段。
func (r Resolution) Patch(mid [4]byte) [PatternLen]byte {
	enc := r.Encode()
	var out [PatternLen]byte
	copy(out[0:4], enc[0:4])
	copy(out[4:8], mid[:])
	copy(out[8:12], enc[4:8])
	return out
}
