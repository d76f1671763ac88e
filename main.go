package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/donutnomad/docgen/plugin"
	"github.com/donutnomad/docgen/sandboxgen"
	"github.com/donutnomad/docgen/webrgen"
)

func init() {
	// 集中注册所有标签处理器
	plugin.MustRegister(sandboxgen.NewSandboxGenerator())
	plugin.MustRegister(webrgen.NewWebRGenerator())
}

var (
	verbose = flag.Bool("v", false, "详细输出")
	help    = flag.Bool("h", false, "显示帮助信息")
	output  = flag.String("output", "docs", "文档输出目录")
	format  = flag.String("format", "html", "输出格式 (html/print/text)")
	addr    = flag.String("addr", ":4380", "dev 模式预览服务监听地址")
)

// configFileName 可选的项目级配置文件，命令行选项优先
const configFileName = "docgen.yaml"

// toolConfig docgen.yaml 的结构
type toolConfig struct {
	Output  string `yaml:"output"`
	Format  string `yaml:"format"`
	Addr    string `yaml:"addr"`
	Verbose bool   `yaml:"verbose"`
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	applyConfigFile()

	args := flag.Args()

	// 默认命令是 gen
	if len(args) == 0 {
		runGen([]string{"./..."})
		return
	}

	// 检查是否是子命令
	cmd := args[0]
	switch cmd {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	default:
		// 不是子命令，当作路径参数处理，执行 gen
		runGen(args)
	}
}

// applyConfigFile 读取 docgen.yaml（如果存在）并填充未显式指定的选项
// 显式传入的命令行选项始终优先于配置文件
func applyConfigFile() {
	data, err := os.ReadFile(configFileName)
	if err != nil {
		return
	}

	var cfg toolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "警告: 解析 %s 失败: %v\n", configFileName, err)
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if cfg.Output != "" && !set["output"] {
		*output = cfg.Output
	}
	if cfg.Format != "" && !set["format"] {
		*format = cfg.Format
	}
	if cfg.Addr != "" && !set["addr"] {
		*addr = cfg.Addr
	}
	if cfg.Verbose && !set["v"] {
		*verbose = true
	}
}

func runGen(args []string) {
	// 获取扫描路径
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	// 检查是否有已注册的处理器
	registry := plugin.Global()
	if len(registry.Handlers()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的处理器")
		os.Exit(1)
	}

	renderFormat, err := plugin.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("已注册 %d 个处理器:\n", len(registry.Handlers()))
		for _, h := range registry.Handlers() {
			tags := lo.Map(h.Tags(), func(item string, index int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", h.Name(), strings.Join(tags, ","))
		}
		fmt.Println()
	}

	// 运行文档生成
	ctx := context.Background()

	opts := &plugin.RunOptions{
		Registry: registry,
		Patterns: patterns,
		Verbose:  *verbose,
		Output:   *output,
		Format:   renderFormat,
	}

	stats, err := plugin.RunWithOptionsAndStats(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	// 输出统计信息
	if stats != nil && (stats.PageCount > 0 || *verbose) {
		fmt.Printf("\n统计: 处理 %d 个标签块, 输出 %d 个页面\n", stats.BlockCount, stats.PageCount)
		fmt.Printf("耗时: 扫描 %v, 渲染 %v, 总计 %v\n", stats.ScanDuration, stats.RenderDuration, stats.TotalDuration)
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `docgen - R 包文档标签处理工具

用法:
  docgen [选项] [路径...]
  docgen gen [选项] [路径...]
  docgen dev [选项] [路径...]

命令:
  gen     扫描 roxygen 注释并生成文档页面（默认）
  dev     启动开发模式，监听文件变动自动生成并提供预览服务

路径:
  支持目录路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./R/...        递归扫描 R 源码目录
    ./pkg          只扫描指定目录

选项:
`)
	flag.PrintDefaults()

	// 动态生成标签帮助信息
	registry := plugin.Global()
	if len(registry.Handlers()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的标签:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `配置文件:
  当前目录存在 %s 时读取 output/format/addr/verbose 四项，
  命令行显式传入的选项优先

示例:
  docgen                                    扫描当前目录（默认 ./...）
  docgen ./R/...                            递归扫描 R 目录
  docgen -v ./R/...                         详细模式
  docgen -output site -format html ./...    指定输出目录和格式
  docgen dev ./...                          开发模式，监听变动并预览
  docgen -v -addr :8080 dev ./...           开发模式，指定预览地址
`, configFileName)
}
