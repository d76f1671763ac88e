// Package webrgen 实现 @webrExamples 标签
//
// 除普通示例段落外，额外生成一个"在浏览器中运行"的附加段落：
// 示例代码被编码进 webR REPL 的分享 URL，以链接或内嵌 iframe
// 的形式呈现。代码本身不会访问该服务
package webrgen

import (
	"errors"
	"fmt"

	"github.com/donutnomad/docgen/plugin"
)

const handlerName = "webrgen"

// WebRGenerator 实现 plugin.TagHandler 接口
type WebRGenerator struct {
	*plugin.BaseHandler
}

// NewWebRGenerator 创建 webrgen 处理器
func NewWebRGenerator() *WebRGenerator {
	return &WebRGenerator{
		BaseHandler: plugin.NewBaseHandler(
			handlerName,
			[]string{"webrExamples"},
			"生成可在浏览器中运行示例的 webR 分享链接",
		),
	}
}

// Parse PARSE 阶段：只做结构拆分，参数行原文随 ParsedTag 带入 RENDER 阶段
// 此时包上下文尚不可用，校验全部推迟到 Render
func (g *WebRGenerator) Parse(block *plugin.TaggedBlock) (*plugin.ParsedTag, error) {
	return plugin.SplitBlock(block), nil
}

// Render RENDER 阶段：级联参数、编码分享负载、生成段落
//
// 错误策略（块粒度隔离）：
//   - 参数校验失败（版本/模式非法）：当前块渲染整体失败，返回错误
//   - 仓库地址缺失：只放弃安装代码，分享链接照常生成
//   - 其余编码/模板错误：警告并退化为只输出普通示例段落
func (g *WebRGenerator) Render(ctx *plugin.RenderContext, tag *plugin.ParsedTag) ([]*plugin.Section, error) {
	examples := &plugin.Section{
		Kind:    plugin.SectionExamples,
		Title:   "Examples",
		Content: tag.Body,
	}

	supplement, err := g.renderShare(ctx, tag)
	if err != nil {
		if errors.Is(err, ErrInvalidParameter) {
			return nil, err
		}
		fmt.Printf("警告: %s:%d 的 @%s 生成分享段落失败, 退化为普通示例: %v\n",
			tag.Block.FilePath, tag.Block.Line, tag.Tag, err)
		return []*plugin.Section{examples}, nil
	}

	return []*plugin.Section{examples, supplement}, nil
}

// renderShare 生成"在浏览器中运行"附加段落
func (g *WebRGenerator) renderShare(ctx *plugin.RenderContext, tag *plugin.ParsedTag) (*plugin.Section, error) {
	p, err := Resolve(ctx.Desc, tag.ParamLine)
	if err != nil {
		return nil, err
	}

	code := tag.Body

	// 仓库地址和包名都已知时，示例前附上安装代码；否则只告警不中断
	if ctx.Desc != nil {
		repo, rerr := DetectRepository(ctx.Desc)
		pkg := ctx.Desc.Package()
		if rerr == nil && pkg != "" {
			code = InstallSnippet(pkg, repo) + code
		} else if rerr != nil && ctx.Verbose {
			fmt.Printf("警告: %s 省略安装代码: %v\n", tag.Block.PackageDir, rerr)
		}
	}

	payload, err := EncodeShare(code, snippetFileName, p.Autorun)
	if err != nil {
		return nil, err
	}

	shareURL := ShareURL(p, payload)

	content, err := RenderFragment(ctx.Format, p, shareURL, SnippetID(payload))
	if err != nil {
		return nil, err
	}

	return &plugin.Section{
		Kind:    plugin.SectionSupplement,
		Title:   "Run in browser",
		Content: content,
	}, nil
}
