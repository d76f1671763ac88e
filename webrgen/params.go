package webrgen

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/docgen/internal/rpkg"
)

// 参数校验失败，当前块的渲染整体失败
var ErrInvalidParameter = errors.New("参数无效")

// 包配置不满足要求（如缺少可识别的仓库地址）
var ErrConfiguration = errors.New("包配置无效")

// minVersion webR 分享链接支持的最低运行时版本
var minVersion = [3]int{0, 5, 4}

// modeVocabulary mode 参数允许的界面组件
var modeVocabulary = []string{"editor", "plot", "terminal", "files"}

// DESCRIPTION 中的命名空间配置键
const (
	keyRepository = "Config/webr/repository"
	keyHeight     = "Config/webr/height"
	keyVersion    = "Config/webr/version"
	keyAutorun    = "Config/webr/autorun"
	keyMode       = "Config/webr/mode"
	keyChannel    = "Config/webr/channel"
)

// ParamSet 默认值级联后的有效参数集合
type ParamSet struct {
	Embed   bool   // true 内嵌 iframe，false 生成链接
	Autorun bool   // 打开后自动执行
	Version string // 运行时版本，"latest" 或 vX.Y.Z
	Height  int    // iframe 像素高度
	Mode    string // 连字符连接的界面组件列表，空为服务默认
	Channel string // 通信通道名，空为服务默认
}

// Defaults 内置默认值（级联最低优先级）
func Defaults() ParamSet {
	return ParamSet{
		Embed:   false,
		Autorun: false,
		Version: "latest",
		Height:  500,
		Mode:    "",
		Channel: "",
	}
}

// 标签行参数 token
// 布尔项允许裸标志（embed）和赋值（embed=false）两种写法，
// 赋值写法必须整体匹配，避免裸标志吞掉一半 token
var (
	embedRegex   = regexp.MustCompile(`\bembed\b(?:\s*=\s*(\S+))?`)
	autorunRegex = regexp.MustCompile(`\bautorun\b(?:\s*=\s*(\S+))?`)
	versionRegex = regexp.MustCompile(`\bversion\s*=\s*(\S+)`)
	heightRegex  = regexp.MustCompile(`\bheight\s*=\s*(\S+)`)
	modeRegex    = regexp.MustCompile(`\bmode\s*=\s*(\S+)`)
	channelRegex = regexp.MustCompile(`\bchannel\s*=\s*(\S+)`)
)

// ParseLine 按标签行的内联 token 覆盖 base 中的参数
//
// 每个选项只读第一处出现（同名 token 后出现的不覆盖先出现的——
// 这是既定行为，不保证"后者胜出"）。height 的非数字取值
// 静默忽略，保持之前的默认值
func ParseLine(line string, base ParamSet) ParamSet {
	p := base

	if m := embedRegex.FindStringSubmatch(line); m != nil {
		p.Embed = flagValue(m[1])
	}
	if m := autorunRegex.FindStringSubmatch(line); m != nil {
		p.Autorun = flagValue(m[1])
	}
	if m := versionRegex.FindStringSubmatch(line); m != nil {
		p.Version = m[1]
	}
	if m := heightRegex.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 {
			p.Height = n
		}
	}
	if m := modeRegex.FindStringSubmatch(line); m != nil {
		p.Mode = m[1]
	}
	if m := channelRegex.FindStringSubmatch(line); m != nil {
		p.Channel = m[1]
	}

	return p
}

// flagValue 裸标志视为 true，赋值写法按 {"true","yes","1"} 解析
func flagValue(v string) bool {
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || v == "1"
}

// FromDescription 以内置默认值为基础套用 DESCRIPTION 中的 Config/webr 配置
// desc 为 nil（文件缺失或不可读）时直接返回内置默认值
func FromDescription(desc *rpkg.Description) ParamSet {
	p := Defaults()
	if desc == nil {
		return p
	}

	if v, ok := desc.Bool(keyAutorun); ok {
		p.Autorun = v
	}
	if v, ok := desc.Int(keyHeight); ok && v >= 0 {
		p.Height = v
	}
	if v := desc.Get(keyVersion); v != "" {
		p.Version = v
	}
	if v := desc.Get(keyMode); v != "" {
		p.Mode = v
	}
	if v := desc.Get(keyChannel); v != "" {
		p.Channel = v
	}

	return p
}

// Resolve 执行三级默认值级联并校验最终参数
// 优先级：内联 token > DESCRIPTION 配置 > 内置默认值
func Resolve(desc *rpkg.Description, line string) (ParamSet, error) {
	p := ParseLine(line, FromDescription(desc))

	if !ValidVersion(p.Version) {
		return p, fmt.Errorf(`%w: version=%q, 需要 "latest" 或不低于 v%d.%d.%d 的 vX.Y.Z 形式`,
			ErrInvalidParameter, p.Version, minVersion[0], minVersion[1], minVersion[2])
	}
	if !ValidMode(p.Mode) {
		return p, fmt.Errorf("%w: mode=%q, 每个组件必须是 %s 之一（用连字符连接）",
			ErrInvalidParameter, p.Mode, strings.Join(modeVocabulary, "/"))
	}

	return p, nil
}

// versionRegexNum 匹配 v<major>.<minor>.<patch>，允许携带后缀
var versionRegexNum = regexp.MustCompile(`^v(\d+)\.(\d+)\.(\d+)`)

// ValidVersion 校验版本 token
// "latest" 合法；其余必须是 v 前缀的三段数字版本且不低于最低版本
func ValidVersion(v string) bool {
	if v == "latest" {
		return true
	}

	m := versionRegexNum.FindStringSubmatch(v)
	if m == nil {
		return false
	}

	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return false
		}
		nums[i] = n
	}

	for i := 0; i < 3; i++ {
		if nums[i] != minVersion[i] {
			return nums[i] > minVersion[i]
		}
	}
	return true // 正好等于最低版本
}

// ValidMode 校验 mode token
// 空串合法（使用服务默认界面）；否则每个连字符分隔的组件都必须在词表内
func ValidMode(mode string) bool {
	if mode == "" {
		return true
	}

	for _, part := range strings.Split(mode, "-") {
		if !lo.Contains(modeVocabulary, part) {
			return false
		}
	}
	return true
}
