package plugin

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/donutnomad/docgen/internal/rpkg"
	"github.com/donutnomad/docgen/internal/utils"
)

// Run 运行文档生成
// 1. 扫描指定路径的标签块
// 2. PARSE 阶段：逐块结构拆分
// 3. 按包加载 DESCRIPTION（每包每次运行至多读取一次）
// 4. RENDER 阶段：逐块渲染，单块失败不影响其他块
// 5. 按源文件聚合段落并写出页面
func Run(ctx context.Context, registry *Registry, patterns ...string) error {
	opts := &RunOptions{
		Registry: registry,
		Patterns: patterns,
	}
	return RunWithOptions(ctx, opts)
}

// RunGlobal 使用全局注册表运行
func RunGlobal(ctx context.Context, patterns ...string) error {
	return Run(ctx, globalRegistry, patterns...)
}

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Verbose  bool
	Output   string       // 输出目录
	Format   RenderFormat // 输出格式，零值按 HTML 处理
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration   time.Duration // 扫描耗时
	RenderDuration time.Duration // 渲染耗时
	TotalDuration  time.Duration // 总耗时
	BlockCount     int           // 标签块数量
	PageCount      int           // 生成页面数量
}

// RunWithOptions 带选项运行
func RunWithOptions(ctx context.Context, opts *RunOptions) error {
	_, err := RunWithOptionsAndStats(ctx, opts)
	return err
}

// RunWithOptionsAndStats 带选项运行并返回统计信息
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}

	format := opts.Format
	if format == 0 {
		format = FormatHTML
	}

	tags := registry.Tags()
	if len(tags) == 0 {
		return nil, fmt.Errorf("没有已注册的标签处理器")
	}

	// 扫描
	scanStart := time.Now()
	scanner := NewScanner(
		WithTagFilter(tags...),
		WithScannerVerbose(opts.Verbose),
	)
	result, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)

	if len(result.Blocks) == 0 {
		if opts.Verbose {
			fmt.Println("没有找到任何标签块")
		}
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}

	stats.BlockCount = len(result.Blocks)
	if opts.Verbose {
		fmt.Printf("找到 %d 个标签块 (扫描耗时: %v)\n", stats.BlockCount, stats.ScanDuration)
	}

	renderStart := time.Now()

	// ========== PARSE 阶段 ==========
	type parsedItem struct {
		handler TagHandler
		tag     *ParsedTag
	}

	var parsed []parsedItem
	for _, block := range result.Blocks {
		handler, ok := registry.GetByTag(block.Tag)
		if !ok {
			continue
		}

		pt, err := handler.Parse(block)
		if err != nil {
			fmt.Printf("警告: 解析 %s:%d 的 @%s 失败: %v\n", block.FilePath, block.Line, block.Tag, err)
			continue
		}
		parsed = append(parsed, parsedItem{handler: handler, tag: pt})
	}

	// ========== 包元数据加载（每包一次）==========
	descCache := make(map[string]*rpkg.Description)
	descForPkg := func(pkgDir string) *rpkg.Description {
		if desc, ok := descCache[pkgDir]; ok {
			return desc
		}
		desc, err := rpkg.Load(pkgDir)
		if err != nil {
			fmt.Printf("警告: 读取 %s 的 DESCRIPTION 失败, 使用内置默认值: %v\n", pkgDir, err)
			desc = nil
		}
		descCache[pkgDir] = desc
		return desc
	}

	// ========== RENDER 阶段 ==========
	pages := make(map[string][]*PageEntry)
	var pageOrder []string

	for _, item := range parsed {
		block := item.tag.Block
		rctx := &RenderContext{
			Desc:    descForPkg(block.PackageDir),
			Format:  format,
			Verbose: opts.Verbose,
		}

		sections, err := item.handler.Render(rctx, item.tag)
		if err != nil {
			// 渲染错误只影响当前块
			fmt.Printf("警告: 渲染 %s:%d 的 @%s 失败: %v\n", block.FilePath, block.Line, block.Tag, err)
			continue
		}
		if len(sections) == 0 {
			continue
		}

		if _, ok := pages[block.FilePath]; !ok {
			pageOrder = append(pageOrder, block.FilePath)
		}
		pages[block.FilePath] = append(pages[block.FilePath], &PageEntry{
			Object:   block.ObjectName,
			Line:     block.Line,
			Sections: sections,
		})
	}

	// ========== 页面写出 ==========
	outDir := opts.Output
	if outDir == "" {
		outDir = "docs"
	}

	for _, filePath := range pageOrder {
		entries := pages[filePath]

		content, err := RenderPage(filePath, entries, format, descForPkg(findPackageDir(filePath)))
		if err != nil {
			fmt.Printf("警告: 生成 %s 的页面失败: %v\n", filePath, err)
			continue
		}

		outPath := filepath.Join(outDir, PageFileName(filePath, format))
		if err := writePage(outPath, content); err != nil {
			fmt.Printf("警告: 写入 %s 失败: %v\n", outPath, err)
			continue
		}

		stats.PageCount++
		fmt.Printf("生成页面: %s\n", outPath)
	}

	stats.RenderDuration = time.Since(renderStart)
	stats.TotalDuration = time.Since(totalStart)

	return stats, nil
}

// PageEntry 页面中一个对象的渲染结果
type PageEntry struct {
	Object   string
	Line     int
	Sections []*Section
}

// pageData 页面模板数据
type pageData struct {
	Title   string
	Package string
	Blocks  []pageBlock
}

type pageBlock struct {
	Object   string
	Title    string
	Code     bool   // true 时 Escaped 按代码块输出
	Content  string // Code 为 false 时为已生成的标记文本，原样输出
	Escaped  string
	Anchor   string
}

// pageTemplate HTML 页面模板
var pageTemplate = template.Must(template.New("page").Funcs(sprig.FuncMap()).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}{{ with .Package }} &mdash; {{ . }}{{ end }}</title>
<style>
body { max-width: 56rem; margin: 0 auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.5; }
pre { background: #f6f6f6; padding: .75rem 1rem; overflow-x: auto; border-radius: 4px; }
h2 { border-bottom: 1px solid #ddd; padding-bottom: .25rem; }
</style>
</head>
<body>
<h1>{{ .Title }}</h1>
{{- range .Blocks }}
<section id="{{ .Anchor }}">
{{- if .Object }}
<h2><code>{{ .Object }}</code></h2>
{{- end }}
<h3>{{ .Title }}</h3>
{{- if .Code }}
<pre><code class="language-r">{{ .Escaped }}</code></pre>
{{- else }}
{{ .Content }}
{{- end }}
</section>
{{- end }}
</body>
</html>
`))

// RenderPage 把一个源文件的所有段落组装为一个页面
// HTML 格式走页面模板，其余格式输出纯文本
func RenderPage(srcPath string, entries []*PageEntry, format RenderFormat, desc *rpkg.Description) (string, error) {
	title := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))

	if format != FormatHTML {
		var sb strings.Builder
		for _, e := range entries {
			if e.Object != "" {
				fmt.Fprintf(&sb, "== %s ==\n\n", e.Object)
			}
			for _, sec := range e.Sections {
				fmt.Fprintf(&sb, "%s:\n%s\n\n", sec.Title, sec.Content)
			}
		}
		return sb.String(), nil
	}

	data := pageData{
		Title: title,
	}
	if desc != nil {
		data.Package = desc.Package()
	}

	for i, e := range entries {
		anchor := utils.Slugify(e.Object)
		if anchor == "" {
			anchor = fmt.Sprintf("block-%d", i+1)
		}
		for j, sec := range e.Sections {
			pb := pageBlock{
				Title:  sec.Title,
				Anchor: anchor,
			}
			// 对象标题只在该对象的第一个段落前输出一次
			if j == 0 {
				pb.Object = e.Object
			}
			if sec.Kind == SectionExamples {
				pb.Code = true
				pb.Escaped = html.EscapeString(sec.Content)
			} else {
				pb.Content = sec.Content
			}
			data.Blocks = append(data.Blocks, pb)
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("执行页面模板失败: %w", err)
	}
	return buf.String(), nil
}

// PageFileName 页面输出文件名
func PageFileName(srcPath string, format RenderFormat) string {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	name := utils.Slugify(base)
	if name == "" {
		name = "index"
	}
	if format == FormatHTML {
		return name + ".html"
	}
	return name + ".txt"
}

// writePage 写入页面文件
func writePage(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0644)
}
