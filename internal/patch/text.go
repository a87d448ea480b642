package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/AnnoRes/internal/domain"
)

// ErrLabelNotFound 表示文本中没有旧分辨率的标签行。非致命：文本仍会写出。
var ErrLabelNotFound = errors.New("未在文本中找到旧分辨率标签")

// TextResult 是文本补丁的结果。Text 已是 CRLF 行尾。
type TextResult struct {
	Text     string
	Replaced int
}

// PatchText 把独占一行的旧分辨率标签替换为目标分辨率。
//
// 只匹配 "\n{old}\n"：前后换行是必需的边界，"11280x1024" 之类的更长记号不会被替换。
// 输入的行尾（CRLF / CR / LF）先统一为 LF，输出统一为 CRLF。
func PatchText(text string, old, target domain.Resolution) (TextResult, error) {
	text = normalizeLF(text)

	needle := "\n" + old.String() + "\n"
	n := strings.Count(text, needle)
	if n > 0 {
		text = strings.ReplaceAll(text, needle, "\n"+target.String()+"\n")
	}

	res := TextResult{
		Text:     strings.ReplaceAll(text, "\n", "\r\n"),
		Replaced: n,
	}
	if n == 0 {
		return res, ErrLabelNotFound
	}
	return res, nil
}

// PatchTextFile 在 Latin-1 字节上执行 PatchText。
// 返回的 error 可能是 ErrLabelNotFound（此时 out 仍然有效）。
func PatchTextFile(raw []byte, old, target domain.Resolution) (out []byte, replaced int, err error) {
	text, err := DecodeLatin1(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("解码 Latin-1 失败：%w", err)
	}

	res, perr := PatchText(text, old, target)
	if perr != nil && !errors.Is(perr, ErrLabelNotFound) {
		return nil, 0, perr
	}

	out, err = EncodeLatin1(res.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("编码 Latin-1 失败：%w", err)
	}
	return out, res.Replaced, perr
}

func normalizeLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
