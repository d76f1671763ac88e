// Package rpkg 读取 R 包的元数据文件 DESCRIPTION
//
// DESCRIPTION 使用 DCF 格式：每个字段为 "Key: value"，
// 以空白开头的行是上一字段的续行。这里只做读取，不做写入
package rpkg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
)

// Description 一个包的 DESCRIPTION 内容
// 每次运行每个包至多读取一次，读取后只读
type Description struct {
	// Dir 包目录
	Dir string

	// fields 字段名 -> 值（续行已合并）
	fields map[string]string
}

// Load 读取 pkgDir 下的 DESCRIPTION 文件
func Load(pkgDir string) (*Description, error) {
	path := filepath.Join(pkgDir, "DESCRIPTION")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	desc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	desc.Dir = pkgDir
	return desc, nil
}

// Parse 解析 DCF 格式内容
func Parse(r io.Reader) (*Description, error) {
	fields := make(map[string]string)

	var currentKey string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			currentKey = ""
			continue
		}

		// 续行：以空白开头，归入上一字段
		if line[0] == ' ' || line[0] == '\t' {
			if currentKey != "" {
				fields[currentKey] += " " + strings.TrimSpace(line)
			}
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			// 容忍格式噪音，跳过无法识别的行
			currentKey = ""
			continue
		}

		currentKey = strings.TrimSpace(line[:idx])
		fields[currentKey] = strings.TrimSpace(line[idx+1:])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Description{fields: fields}, nil
}

// Get 返回字段值，不存在时返回空字符串
func (d *Description) Get(key string) string {
	if d == nil {
		return ""
	}
	return d.fields[key]
}

// Has 检查字段是否存在
func (d *Description) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.fields[key]
	return ok
}

// Bool 按 {"true","yes","1"}（忽略大小写）解析布尔字段
// 第二个返回值表示字段是否存在
func (d *Description) Bool(key string) (bool, bool) {
	v := d.Get(key)
	if v == "" {
		return false, false
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || v == "1", true
}

// Int 按十进制解析整数字段
// 解析失败视为字段不存在（保留调用方的默认值）
func (d *Description) Int(key string) (int, bool) {
	v := d.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Package 包名
func (d *Description) Package() string {
	return d.Get("Package")
}

// URLs 按声明顺序返回 URL 字段中逗号分隔的各项
func (d *Description) URLs() []string {
	raw := d.Get("URL")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if u := strings.TrimSpace(p); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
