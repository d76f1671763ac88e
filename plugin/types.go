package plugin

import (
	"fmt"
	"strings"

	"github.com/donutnomad/docgen/internal/rpkg"
)

// RenderFormat 表示文档的输出格式
type RenderFormat int

const (
	FormatHTML  RenderFormat = iota + 1 // HTML 页面
	FormatPrint                         // 打印格式（PDF 等），只输出纯 URL
	FormatText                          // 纯文本
)

func (f RenderFormat) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatPrint:
		return "print"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseFormat 解析输出格式名称，忽略大小写
func ParseFormat(s string) (RenderFormat, error) {
	switch strings.ToLower(s) {
	case "html", "":
		return FormatHTML, nil
	case "print":
		return FormatPrint, nil
	case "text":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("未知的输出格式: %q (支持 html/print/text)", s)
	}
}

// SectionKind 表示输出段落的类型
type SectionKind int

const (
	SectionExamples   SectionKind = iota + 1 // 示例代码段落
	SectionSupplement                        // 附加段落（如在线运行入口）
)

// TaggedBlock 表示源码注释中一次标签出现
// 第一行（标签行）可能携带内联参数，余下行为示例代码
// 读取后不可变，每个块只消费一次
type TaggedBlock struct {
	Tag        string   // 标签名，如 "webrExamples"
	RawLine    string   // 标签行原文（含 @标签名 和内联参数）
	Body       []string // 标签行之后的内容行（已去除注释前缀）
	FilePath   string   // 源文件路径
	ObjectName string   // 关联的 R 对象名（可能为空）
	PackageDir string   // 所属包目录（包含 DESCRIPTION 的目录）
	Line       int      // 标签行在源文件中的行号
}

// ParsedTag PARSE 阶段的产物，作为显式中间记录传递给 RENDER 阶段
// PARSE 阶段只做结构拆分，不做校验（此时包上下文尚不可用）
type ParsedTag struct {
	Tag       string       // 标签名
	ParamLine string       // 标签行中去掉 @标签名 后的参数部分原文
	Body      string       // 示例代码（去掉可能的空行分隔符后逐行拼接）
	Block     *TaggedBlock // 原始块，供渲染时取文件/对象信息
}

// Section 渲染产物，交还给宿主后不再有生命周期
type Section struct {
	Kind    SectionKind
	Title   string
	Content string
}

// RenderContext RENDER 阶段上下文
// 包级元数据作为显式只读参数传入，保证渲染函数可独立测试
type RenderContext struct {
	Desc    *rpkg.Description // 包 DESCRIPTION，读取失败时为 nil
	Format  RenderFormat
	Verbose bool
}
