package webrgen

import (
	"fmt"
	"regexp"

	"github.com/donutnomad/docgen/internal/rpkg"
)

// 仓库地址的两种可识别形式
var (
	// GitHub Pages 站点: https://<user>.github.io/<name>/
	pagesRegex = regexp.MustCompile(`^https?://[^/.]+\.github\.io/[^/]+/?$`)
	// r-universe 个人仓库: https://<user>.r-universe.dev
	universeRegex = regexp.MustCompile(`^https?://[^/.]+\.r-universe\.dev/?$`)
)

// DetectRepository 确定包的仓库地址，用于生成安装代码
//
// 显式的 Config/webr/repository 字段优先；否则按声明顺序扫描
// URL 字段：先找 GitHub Pages 形式，再找 r-universe 形式，
// 先命中的模式胜出
func DetectRepository(desc *rpkg.Description) (string, error) {
	if r := desc.Get(keyRepository); r != "" {
		return r, nil
	}

	urls := desc.URLs()

	for _, u := range urls {
		if pagesRegex.MatchString(u) {
			return u, nil
		}
	}
	for _, u := range urls {
		if universeRegex.MatchString(u) {
			return u, nil
		}
	}

	return "", fmt.Errorf("%w: 未找到可用的仓库地址, 需要 https://<user>.github.io/<name>/ 或 https://<user>.r-universe.dev 形式的 URL 字段, 或显式设置 %s",
		ErrConfiguration, keyRepository)
}
