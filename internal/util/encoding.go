package util

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// consoleEncodings lists the legacy charsets switches are known to emit,
// most likely first. Huawei/H3C gear often answers in GB18030/GBK.
var consoleEncodings = []encoding.Encoding{
	simplifiedchinese.GB18030,
	simplifiedchinese.GBK,
	simplifiedchinese.HZGB2312,
	traditionalchinese.Big5,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// EnsureUTF8Bytes decodes console output bytes into a UTF-8 string. Valid
// UTF-8 passes through untouched; otherwise the known legacy charsets are
// tried in order, and on total failure the raw bytes are returned as-is so
// prompt matching still sees the ASCII tail.
func EnsureUTF8Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	for _, enc := range consoleEncodings {
		decoded, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			continue
		}
		if utf8.Valid(decoded) {
			return string(decoded)
		}
	}
	return string(b)
}

// EnsureUTF8 converts a possibly mojibake string to UTF-8.
func EnsureUTF8(s string) string {
	return EnsureUTF8Bytes([]byte(s))
}
