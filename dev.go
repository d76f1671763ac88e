package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"

	"github.com/donutnomad/docgen/plugin"
)

// DevOptions dev 命令选项
type DevOptions struct {
	Patterns []string            // 监听的路径模式
	Verbose  bool                // 详细输出
	Output   string              // 文档输出目录
	Format   plugin.RenderFormat // 输出格式
	Addr     string              // 预览服务监听地址
	Debounce time.Duration       // 防抖动时间
}

// devRunner 处理文件变动的核心逻辑
type devRunner struct {
	opts     *DevOptions
	registry *plugin.Registry
	watcher  *fsnotify.Watcher
	scanner  *plugin.Scanner
	ctx      context.Context // 用于响应退出信号

	// 防抖动相关
	mu          sync.Mutex
	pendingDirs map[string]*time.Timer // key: 包目录路径
}

// runDev 启动开发模式
func runDev(args []string) {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

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

	opts := &DevOptions{
		Patterns: patterns,
		Verbose:  *verbose,
		Output:   *output,
		Format:   renderFormat,
		Addr:     *addr,
		Debounce: 5 * time.Second,
	}

	if err := dev(opts); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// dev 启动开发模式
func dev(opts *DevOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n正在退出...")
		cancel()
	}()

	// 创建 watcher
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	registry := plugin.Global()
	tags := registry.Tags()

	runner := &devRunner{
		opts:        opts,
		registry:    registry,
		watcher:     watcher,
		scanner:     plugin.NewScanner(plugin.WithTagFilter(tags...)),
		ctx:         ctx,
		pendingDirs: make(map[string]*time.Timer),
	}

	// 清理函数：退出时停止所有待处理的定时器
	defer func() {
		runner.mu.Lock()
		for _, timer := range runner.pendingDirs {
			timer.Stop()
		}
		runner.mu.Unlock()
	}()

	// 收集并添加监听目录
	dirs, err := collectWatchDirs(opts.Patterns, opts.Output)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}

	if len(dirs) == 0 {
		return fmt.Errorf("没有找到需要监听的目录")
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
		}
		if opts.Verbose {
			fmt.Printf("监听目录: %s\n", dir)
		}
	}

	// 先做一次全量生成，保证预览服务有内容可看
	runner.runGenerate(opts.Patterns...)

	// 启动预览服务
	go runner.serve()

	fmt.Printf("开发模式已启动，监听 %d 个目录\n", len(dirs))
	fmt.Printf("预览地址: http://localhost%s/docs/\n", opts.Addr)
	fmt.Println("按 Ctrl+C 退出")
	fmt.Println()

	// 启动事件处理循环
	return runner.watchLoop(ctx)
}

// serve 启动静态预览服务，托管输出目录
func (r *devRunner) serve() {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.StaticFS("/docs", http.Dir(r.opts.Output))
	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/docs/")
	})

	if err := engine.Run(r.opts.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "预览服务退出: %v\n", err)
	}
}

// watchLoop 事件处理循环
func (r *devRunner) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			r.handleEvent(event)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			if r.opts.Verbose {
				fmt.Printf("监听错误: %v\n", err)
			}
		}
	}
}

// handleEvent 处理文件事件
func (r *devRunner) handleEvent(event fsnotify.Event) {
	// 只关注 Write 和 Create 事件
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	filePath := event.Name
	base := filepath.Base(filePath)

	// DESCRIPTION 变动影响参数级联和仓库检测，直接触发
	if base == "DESCRIPTION" {
		if r.opts.Verbose {
			fmt.Printf("检测到包配置变化: %s\n", filePath)
		}
		r.scheduleGenerate(filepath.Dir(filePath))
		return
	}

	// 其余只处理 .R 源文件
	if ext := strings.ToLower(filepath.Ext(base)); ext != ".r" {
		return
	}

	if r.opts.Verbose {
		fmt.Printf("检测到文件变化: %s\n", filePath)
	}

	// 检查文件是否包含已注册标签
	hasTag, err := r.scanner.QuickMatchFile(filePath)
	if err != nil {
		if r.opts.Verbose {
			fmt.Printf("检查标签失败 %s: %v\n", filePath, err)
		}
		return
	}

	if !hasTag {
		if r.opts.Verbose {
			fmt.Printf("跳过文件（无标签）: %s\n", filePath)
		}
		return
	}

	// 获取所在目录并触发防抖动生成
	r.scheduleGenerate(filepath.Dir(filePath))
}

// scheduleGenerate 防抖动调度生成
func (r *devRunner) scheduleGenerate(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 取消之前的 timer
	if timer, exists := r.pendingDirs[dir]; exists {
		timer.Stop()
	}

	// 创建新的 timer
	r.pendingDirs[dir] = time.AfterFunc(r.opts.Debounce, func() {
		// 检查 context 是否已取消
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		r.runGenerate(dir)

		r.mu.Lock()
		delete(r.pendingDirs, dir)
		r.mu.Unlock()
	})
}

// runGenerate 执行实际的文档生成
func (r *devRunner) runGenerate(patterns ...string) {
	if r.opts.Verbose {
		fmt.Printf("触发文档生成: %s\n", strings.Join(patterns, ", "))
	}

	opts := &plugin.RunOptions{
		Registry: r.registry,
		Patterns: patterns,
		Verbose:  r.opts.Verbose,
		Output:   r.opts.Output,
		Format:   r.opts.Format,
	}

	stats, err := plugin.RunWithOptionsAndStats(r.ctx, opts)
	if err != nil {
		fmt.Printf("生成失败: %v\n", err)
		return
	}

	if stats != nil && stats.PageCount > 0 {
		fmt.Printf("生成完成: %d 个页面 (耗时: %v)\n", stats.PageCount, stats.TotalDuration)
	} else if r.opts.Verbose {
		fmt.Printf("生成完成: 无页面输出\n")
	}
}

// collectWatchDirs 收集所有需要监听的目录
func collectWatchDirs(patterns []string, output string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)

	outputAbs, err := filepath.Abs(output)
	if err != nil {
		return nil, err
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		baseDir := strings.TrimSuffix(pattern, "/...")

		absDir, err := filepath.Abs(baseDir)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absDir)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			continue
		}

		if recursive {
			// 递归收集所有子目录
			err := filepath.Walk(absDir, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				if !info.IsDir() {
					return nil
				}

				// 跳过隐藏目录、renv 和生成产物目录
				name := info.Name()
				if strings.HasPrefix(name, ".") && path != absDir {
					return filepath.SkipDir
				}
				if name == "renv" || name == "man" || path == outputAbs {
					return filepath.SkipDir
				}

				if !seen[path] {
					seen[path] = true
					dirs = append(dirs, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			if !seen[absDir] {
				seen[absDir] = true
				dirs = append(dirs, absDir)
			}
		}
	}

	return dirs, nil
}
