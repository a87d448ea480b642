package patch

import (
	"bytes"
	"errors"

	"github.com/John-Robertt/AnnoRes/internal/domain"
)

// ErrNoMatchFound 表示 DLL 中完全找不到旧分辨率的字节模式（很可能是不兼容的游戏版本）。
var ErrNoMatchFound = errors.New("未在二进制中找到旧分辨率的字节模式")

// Match 是一次命中：起始偏移、长度（固定 12）与原样捕获的中间 4 字节。
type Match struct {
	Offset int
	Length int
	Middle [4]byte
}

// End 返回命中区间的结束偏移（不含）。
func (m Match) End() int { return m.Offset + m.Length }

// Candidate 是针对某一次命中生成的完整补丁结果。
type Candidate struct {
	Match Match
	Data  []byte
}

// FindMatches 从左到右扫描 src，返回所有互不重叠的命中。
//
// 命中后从该命中的末尾继续扫描（而不是 start+1）；这决定了哪些偏移被视为不同的候选，不能改。
// 间距小于 12 字节的相邻模式只会被识别一次，这里不做特殊处理。
func FindMatches(src []byte, p domain.Pattern) []Match {
	var out []Match
	for i := 0; i+domain.PatternLen <= len(src); {
		// 先用 bytes.Index 跳到下一个宽字段，再校验高字段。
		j := bytes.Index(src[i:], p.Width[:])
		if j < 0 {
			break
		}
		i += j
		if i+domain.PatternLen > len(src) {
			break
		}
		mid, ok := p.Match(src[i : i+domain.PatternLen])
		if !ok {
			i++
			continue
		}
		m := Match{Offset: i, Length: domain.PatternLen, Middle: mid}
		out = append(out, m)
		i = m.End()
	}
	return out
}

// PatchBinary 为每一次命中生成一份完整的 src 副本，只替换该命中的 12 字节：
// 新宽 + 该命中自己的中间 4 字节 + 新高。
//
// 返回顺序即扫描顺序；src 不会被修改。零命中返回 ErrNoMatchFound。
func PatchBinary(src []byte, old, target domain.Resolution) ([]Candidate, error) {
	matches := FindMatches(src, old.Pattern())
	if len(matches) == 0 {
		return nil, ErrNoMatchFound
	}

	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		data := bytes.Clone(src)
		span := target.Patch(m.Middle)
		copy(data[m.Offset:m.End()], span[:])
		out = append(out, Candidate{Match: m, Data: data})
	}
	return out, nil
}
