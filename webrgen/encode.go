package webrgen

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/donutnomad/docgen/internal/utils"
)

const (
	// serviceBase webR REPL 服务地址，只出现在生成的链接里，不会被访问
	serviceBase = "https://webr.r-wasm.org/"

	// snippetFileName 分享负载中的固定文件名
	snippetFileName = "example.R"

	// flagSuffix 负载格式标志: j=JSON, u=未压缩; 追加 a 表示自动执行
	flagSuffix  = "&ju"
	autorunFlag = "a"
)

// shareFile webR 分享负载中的单个文件条目
type shareFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Text string `json:"text"`
}

// EncodeShare 把代码片段编码为分享 URL 的 code 负载
//
// 管线：单元素文件列表的紧凑 JSON -> UTF-8 字节 -> 标准 base64 ->
// URL 保留字符百分号编码 -> 字面 % 转义为 \%（Rd 注释语法）->
// 追加格式标志后缀
//
// 纯函数：相同输入必定产生字节级相同的输出，这是与
// webR URL 方案之间的线上契约
func EncodeShare(code, filename string, autorun bool) (string, error) {
	data, err := sonic.Marshal([]shareFile{{
		Name: filename,
		Path: "/" + filename,
		Text: code,
	}})
	if err != nil {
		return "", fmt.Errorf("序列化分享负载失败: %w", err)
	}

	payload := base64.StdEncoding.EncodeToString(data)
	payload = url.QueryEscape(payload)
	payload = utils.EscapeRdPercent(payload)

	if autorun {
		return payload + flagSuffix + autorunFlag, nil
	}
	return payload + flagSuffix, nil
}

// SnippetID 由负载前 10 个字符推导的数字标识
// 用于区分同一页面上多个内嵌块的脚本/样式函数名
func SnippetID(payload string) uint32 {
	n := 10
	if len(payload) < n {
		n = len(payload)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(payload[:n]))
	return h.Sum32()
}

// ShareURL 组装完整的分享 URL
// 形如 https://webr.r-wasm.org/<version>/?mode=<m>&channel=<c>#code=<payload>
// 查询参数只包含非空字段，顺序固定为 mode 在前 channel 在后
func ShareURL(p ParamSet, payload string) string {
	var sb strings.Builder
	sb.WriteString(serviceBase)
	sb.WriteString(p.Version)
	sb.WriteString("/")

	query := make([]string, 0, 2)
	if p.Mode != "" {
		query = append(query, "mode="+p.Mode)
	}
	if p.Channel != "" {
		query = append(query, "channel="+p.Channel)
	}
	if len(query) > 0 {
		sb.WriteString("?")
		sb.WriteString(strings.Join(query, "&"))
	}

	sb.WriteString("#code=")
	sb.WriteString(payload)
	return sb.String()
}

// InstallSnippet 生成安装说明代码，编码前拼接在示例代码之前
func InstallSnippet(pkg, repo string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Install the package from %s\n", repo)
	fmt.Fprintf(&sb, "install.packages(%q, repos = c(%q, \"https://cran.r-project.org\"))\n", pkg, repo)
	sb.WriteString("\n")
	return sb.String()
}
