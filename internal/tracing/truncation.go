package tracing

import "strings"

// span 属性长度上限
const (
	MaxErrorLength  = 200
	MaxSQLLength    = 500
	MaxRedisKeyLen  = 100
	MaxFilenameShow = 2 // 文件名首尾各保留的字符数
)

// Truncate 超过 max 个字符时保留首尾，中间用 "..." 连接
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	head := (max - 3 + 1) / 2
	tail := max - 3 - head
	return string(runes[:head]) + "..." + string(runes[len(runes)-tail:])
}

// SafeSQL 截断写入 span 的 SQL
func SafeSQL(sql string) string {
	return Truncate(sql, MaxSQLLength)
}

// SafeRedisKey 截断写入 span 的 Redis 键
func SafeRedisKey(key string) string {
	return Truncate(key, MaxRedisKeyLen)
}

// MaskFilename 简历文件名常带候选人姓名，只保留首尾字符和扩展名
// "zhangsan_cv.pdf" -> "zh********v.pdf"
func MaskFilename(name string) string {
	if name == "" {
		return ""
	}
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	runes := []rune(base)
	switch {
	case len(runes) <= 1:
		return "*" + ext
	case len(runes) <= 2*MaxFilenameShow:
		return string(runes[:1]) + strings.Repeat("*", len(runes)-1) + ext
	}
	keep := MaxFilenameShow
	return string(runes[:keep]) + strings.Repeat("*", len(runes)-keep-1) + string(runes[len(runes)-1:]) + ext
}
