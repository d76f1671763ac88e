package plugin

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

// Scanner 两阶段并行标签扫描器
// 第一阶段：快速文本匹配，找出可能包含标签的 R 源文件
// 第二阶段：对匹配的文件解析 roxygen 注释块，抽取标签块
type Scanner struct {
	workers int
	verbose bool

	// 标签过滤器（可选）
	tagFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithTagFilter(tags ...string) ScannerOption {
	return func(s *Scanner) {
		s.tagFilter = tags
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanResult 表示扫描结果
type ScanResult struct {
	// Blocks 按发现顺序排列的标签块
	Blocks []*TaggedBlock
}

// roxygenRegex 匹配 roxygen 注释行 #' xxx
// 捕获组为去掉前缀（含一个可选空格）后的内容
var roxygenRegex = regexp.MustCompile(`^\s*#'\s?(.*)$`)

// tagLineRegex 匹配标签行 @name ...
var tagLineRegex = regexp.MustCompile(`^@(\w+)\b`)

// objectRegex 匹配 R 对象赋值，如 my_fn <- function(...) 或 x = 1
var objectRegex = regexp.MustCompile("^\\s*`?([\\w.]+)`?\\s*(<-|=)")

// Scan 扫描指定路径
// 支持: ./... ./R/... ./R /abs/path/...
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	allFiles, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	if len(allFiles) == 0 {
		return &ScanResult{}, nil
	}

	// ========== 第一阶段：快速匹配 ==========
	matchedFiles, err := s.quickMatch(ctx, allFiles)
	if err != nil {
		return nil, err
	}

	if len(matchedFiles) == 0 {
		return &ScanResult{}, nil
	}

	// ========== 第二阶段：注释块解析 ==========
	return s.parseFiles(ctx, matchedFiles)
}

// quickMatch 第一阶段：快速文本匹配
// 并行读取文件，检查注释行中是否包含 @xxx 模式
func (s *Scanner) quickMatch(ctx context.Context, files []string) ([]string, error) {
	type matchResult struct {
		file    string
		matched bool
		err     error
	}

	resultCh := make(chan matchResult, len(files))
	fileCh := make(chan string, len(files))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case file, ok := <-fileCh:
					if !ok {
						return
					}
					matched, err := s.QuickMatchFile(file)
					resultCh <- matchResult{file: file, matched: matched, err: err}
				}
			}
		}()
	}

	go func() {
		for _, file := range files {
			select {
			case <-ctx.Done():
				break
			case fileCh <- file:
			}
		}
		close(fileCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 收集匹配的文件
	matchedSet := make(map[string]bool)
	for r := range resultCh {
		if r.err != nil {
			continue // 跳过错误文件
		}
		if r.matched {
			matchedSet[r.file] = true
		}
	}

	// 保持原有文件顺序，保证输出稳定
	var matchedFiles []string
	for _, f := range files {
		if matchedSet[f] {
			matchedFiles = append(matchedFiles, f)
		}
	}

	return matchedFiles, nil
}

// QuickMatchFile 快速检查文件的 roxygen 注释中是否包含标签
// 用于 dev 模式判断文件是否需要触发文档生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		m := roxygenRegex.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		tm := tagLineRegex.FindStringSubmatch(m[1])
		if tm == nil {
			continue
		}

		tagName := tm[1]
		if len(s.tagFilter) > 0 {
			for _, filter := range s.tagFilter {
				if tagName == filter {
					return true, nil
				}
			}
		} else {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// parseFiles 第二阶段：按文件并行抽取标签块
func (s *Scanner) parseFiles(ctx context.Context, files []string) (*ScanResult, error) {
	type parseResult struct {
		file   string
		blocks []*TaggedBlock
		err    error
	}

	resultCh := make(chan parseResult, len(files))
	fileCh := make(chan string, len(files))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case file, ok := <-fileCh:
					if !ok {
						return
					}
					blocks, err := s.ParseFile(file)
					resultCh <- parseResult{file: file, blocks: blocks, err: err}
				}
			}
		}()
	}

	go func() {
		for _, file := range files {
			select {
			case <-ctx.Done():
				break
			case fileCh <- file:
			}
		}
		close(fileCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	byFile := make(map[string][]*TaggedBlock)
	for r := range resultCh {
		if r.err != nil {
			continue
		}
		byFile[r.file] = r.blocks
	}

	// 按输入文件顺序合并，保证输出稳定
	result := &ScanResult{}
	for _, f := range files {
		result.Blocks = append(result.Blocks, byFile[f]...)
	}

	return result, nil
}

// ParseFile 解析单个 R 源文件，抽取所有标签块
//
// roxygen 块是连续的 #' 注释行；块内从 @标签 行开始到下一个 @ 行
// （或块结束）为一个标签块。块结束后的第一个赋值语句提供对象名
func (s *Scanner) ParseFile(filePath string) ([]*TaggedBlock, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	pkgDir := findPackageDir(filePath)

	var blocks []*TaggedBlock
	var current []roxyLine

	flush := func(objectName string) {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, s.extractBlocks(current, filePath, objectName, pkgDir)...)
		current = nil
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if m := roxygenRegex.FindStringSubmatch(line); m != nil {
			current = append(current, roxyLine{text: m[1], num: lineNum})
			continue
		}

		// 注释块结束，尝试从当前行提取对象名
		objectName := ""
		if m := objectRegex.FindStringSubmatch(line); m != nil {
			objectName = m[1]
		}
		flush(objectName)
	}
	// 文件以注释块结尾
	flush("")

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// roxyLine 带行号的 roxygen 注释内容行
type roxyLine struct {
	text string
	num  int
}

// extractBlocks 从一个 roxygen 块中抽取标签块
func (s *Scanner) extractBlocks(lines []roxyLine, filePath, objectName, pkgDir string) []*TaggedBlock {
	var blocks []*TaggedBlock

	i := 0
	for i < len(lines) {
		m := tagLineRegex.FindStringSubmatch(lines[i].text)
		if m == nil || !s.tagWanted(m[1]) {
			i++
			continue
		}

		block := &TaggedBlock{
			Tag:        m[1],
			RawLine:    lines[i].text,
			FilePath:   filePath,
			ObjectName: objectName,
			PackageDir: pkgDir,
			Line:       lines[i].num,
		}

		// 收集正文直到下一个标签行或块结束
		j := i + 1
		for j < len(lines) && !tagLineRegex.MatchString(lines[j].text) {
			block.Body = append(block.Body, lines[j].text)
			j++
		}

		blocks = append(blocks, block)
		i = j
	}

	return blocks
}

func (s *Scanner) tagWanted(tag string) bool {
	if len(s.tagFilter) == 0 {
		return true
	}
	for _, filter := range s.tagFilter {
		if tag == filter {
			return true
		}
	}
	return false
}

// findPackageDir 从文件目录向上查找包含 DESCRIPTION 的目录
// 找不到时退回文件所在目录
func findPackageDir(filePath string) string {
	dir := filepath.Dir(filePath)
	for d := dir; ; {
		if _, err := os.Stat(filepath.Join(d, "DESCRIPTION")); err == nil {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return dir
		}
		d = parent
	}
}

// collectFiles 收集所有需要扫描的 R 源文件
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		if recursive {
			pattern = strings.TrimSuffix(pattern, "/...")
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			err := filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				if info.IsDir() {
					name := info.Name()
					if strings.HasPrefix(name, ".") || name == "renv" || name == "man" || name == "docs" {
						return filepath.SkipDir
					}
					if !recursive && path != absPath {
						return filepath.SkipDir
					}
					return nil
				}

				if isRFile(path) {
					if !seen[path] {
						seen[path] = true
						files = append(files, path)
					}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isRFile(absPath) {
			if !seen[absPath] {
				seen[absPath] = true
				files = append(files, absPath)
			}
		}
	}

	return files, nil
}

func isRFile(path string) bool {
	return strings.HasSuffix(path, ".R") || strings.HasSuffix(path, ".r")
}

// 默认扫描器
var defaultScanner = NewScanner()

func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return defaultScanner.Scan(ctx, patterns...)
}

func ScanWithFilter(ctx context.Context, tags []string, patterns ...string) (*ScanResult, error) {
	scanner := NewScanner(WithTagFilter(tags...))
	return scanner.Scan(ctx, patterns...)
}
