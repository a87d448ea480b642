package patch

import (
	"golang.org/x/text/encoding/charmap"
)

// Texte.dat 使用单字节的 Latin-1（ISO-8859-1）编码，而不是 UTF-8。

// DecodeLatin1 把 Latin-1 字节解码为 Go 字符串（UTF-8）。
func DecodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeLatin1 把字符串编码回 Latin-1；遇到 Latin-1 无法表示的字符时报错。
func EncodeLatin1(s string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}
