package plugin

// TagHandler 是文档标签处理器接口
// 每个标签目录（如 sandboxgen、webrgen）需要实现此接口
//
// 宿主按两阶段生命周期调用：先 Parse（无包上下文），后 Render（有包上下文）
// 两阶段之间通过显式的 ParsedTag 记录传递数据，处理器自身不保存状态
type TagHandler interface {
	// Name 返回处理器名称
	Name() string

	// Tags 返回该处理器支持的标签列表
	// 一个标签只能绑定一个处理器
	Tags() []string

	// Describe 返回一句话描述，用于帮助信息
	Describe() string

	// Parse PARSE 阶段：对标签块做结构拆分
	// 此阶段不做参数校验，校验推迟到 Render（避免在包上下文可用前中断生成）
	Parse(block *TaggedBlock) (*ParsedTag, error)

	// Render RENDER 阶段：校验参数、生成一个或多个输出段落
	// 返回错误只影响当前块，宿主不会因此中断整个文档生成
	Render(ctx *RenderContext, tag *ParsedTag) ([]*Section, error)
}

// BaseHandler 提供基础实现，可嵌入
type BaseHandler struct {
	name     string
	tags     []string
	describe string
}

func NewBaseHandler(name string, tags []string, describe string) *BaseHandler {
	return &BaseHandler{
		name:     name,
		tags:     tags,
		describe: describe,
	}
}

func (h *BaseHandler) Name() string {
	return h.name
}

func (h *BaseHandler) Tags() []string {
	return h.tags
}

func (h *BaseHandler) Describe() string {
	return h.describe
}

// SplitBlock 对标签块做结构拆分，生成 ParsedTag
// 标签行去掉 @标签名 后的剩余部分作为参数行原文保留；
// 正文若以一个空行开头则丢弃该分隔行，其余内容逐行原样保留
func SplitBlock(block *TaggedBlock) *ParsedTag {
	paramLine := trimTagPrefix(block.RawLine, block.Tag)

	body := block.Body
	if len(body) > 0 && body[0] == "" {
		body = body[1:]
	}

	return &ParsedTag{
		Tag:       block.Tag,
		ParamLine: paramLine,
		Body:      joinLines(body),
		Block:     block,
	}
}

func trimTagPrefix(line, tag string) string {
	marker := "@" + tag
	s := line
	if len(s) >= len(marker) && s[:len(marker)] == marker {
		s = s[len(marker):]
	}
	// 去除标签名和参数之间的空白
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	n := 0
	for _, l := range lines {
		n += len(l) + 1
	}
	buf := make([]byte, 0, n)
	for i, l := range lines {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, l...)
	}
	return string(buf)
}
