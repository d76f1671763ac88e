// Package sandboxgen 实现 @sandboxExamples 标签
//
// 把示例代码包裹在"切换到临时目录 / 恢复原目录"的指令之间，
// 使示例在读者机器上运行时不会在当前目录留下文件
package sandboxgen

import (
	"strings"

	"github.com/donutnomad/docgen/plugin"
)

const handlerName = "sandboxgen"

const (
	// sandboxEnter 保存当前工作目录并切换到临时目录
	sandboxEnter = `\dontshow{.old_wd <- setwd(tempdir())}`
	// sandboxLeave 恢复原工作目录
	sandboxLeave = `\dontshow{setwd(.old_wd)}`
)

// SandboxGenerator 实现 plugin.TagHandler 接口
type SandboxGenerator struct {
	*plugin.BaseHandler
}

// NewSandboxGenerator 创建 sandboxgen 处理器
func NewSandboxGenerator() *SandboxGenerator {
	return &SandboxGenerator{
		BaseHandler: plugin.NewBaseHandler(
			handlerName,
			[]string{"sandboxExamples"},
			"示例代码在临时目录中执行",
		),
	}
}

// Parse PARSE 阶段：只做结构拆分
func (g *SandboxGenerator) Parse(block *plugin.TaggedBlock) (*plugin.ParsedTag, error) {
	return plugin.SplitBlock(block), nil
}

// Render RENDER 阶段：输出包裹后的示例段落
// 该变换不接受参数且不会失败，空正文时指令照常输出
func (g *SandboxGenerator) Render(ctx *plugin.RenderContext, tag *plugin.ParsedTag) ([]*plugin.Section, error) {
	return []*plugin.Section{
		{
			Kind:    plugin.SectionExamples,
			Title:   "Examples",
			Content: Wrap(tag.Body),
		},
	}, nil
}

// Wrap 在示例代码前后加上目录切换指令
// 正文原样保留（包括内部换行），不做任何转义
func Wrap(body string) string {
	parts := make([]string, 0, 3)
	parts = append(parts, sandboxEnter)
	if body != "" {
		parts = append(parts, body)
	}
	parts = append(parts, sandboxLeave)
	return strings.Join(parts, "\n")
}
