package utils

import (
	"crypto/md5"
	"encoding/hex"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
)

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// NewAnalysisID 生成按时间有序的 UUIDv7
func NewAnalysisID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// TruncateRunes 按字符截断，用于日志和 span 属性
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
