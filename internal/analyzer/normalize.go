package analyzer

import (
	"regexp"
	"strings"
)

var (
	newlineRunRe    = regexp.MustCompile(`\n+`)
	horizontalRunRe = regexp.MustCompile(`[ \t]+`)
)

// NormalizeText 规范化提取出的原始文本
// 回车统一为换行，连续换行合并为一个，连续空格/制表符合并为一个空格，最后去掉首尾空白。
// 对任意输入（包括空串）都有定义，且幂等。
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = newlineRunRe.ReplaceAllString(text, "\n")
	text = horizontalRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
