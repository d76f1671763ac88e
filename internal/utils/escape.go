package utils

import "strings"

// EscapeRdPercent 把字面 % 转义为 \%
// Rd 语法中 % 起注释作用，嵌入 URL 负载前必须转义
func EscapeRdPercent(s string) string {
	return strings.ReplaceAll(s, "%", `\%`)
}

// UnescapeRdPercent EscapeRdPercent 的逆变换
func UnescapeRdPercent(s string) string {
	return strings.ReplaceAll(s, `\%`, "%")
}

// Slugify 把名称转换为适合做文件名/锚点的形式
// 字母数字保留并转小写，其余字符折叠为单个连字符
func Slugify(name string) string {
	var buf strings.Builder
	lastDash := true // 抑制开头的连字符

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			buf.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			buf.WriteRune(r + 32)
			lastDash = false
		default:
			if !lastDash {
				buf.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimSuffix(buf.String(), "-")
}
