package plugin

import (
	"strings"
	"testing"
)

// stubHandler 测试用处理器
type stubHandler struct {
	*BaseHandler
	sections []*Section
}

func newStubHandler(name string, tags ...string) *stubHandler {
	return &stubHandler{
		BaseHandler: NewBaseHandler(name, tags, "测试用"),
	}
}

func (h *stubHandler) Parse(block *TaggedBlock) (*ParsedTag, error) {
	return SplitBlock(block), nil
}

func (h *stubHandler) Render(ctx *RenderContext, tag *ParsedTag) ([]*Section, error) {
	if h.sections != nil {
		return h.sections, nil
	}
	return []*Section{
		{Kind: SectionExamples, Title: "Examples", Content: tag.Body},
	}, nil
}

func TestSplitBlock(t *testing.T) {
	block := &TaggedBlock{
		Tag:     "webrExamples",
		RawLine: "@webrExamples embed autorun height=250",
		Body:    []string{"", "x <- 1", "plot(x)"},
	}

	pt := SplitBlock(block)

	if pt.ParamLine != "embed autorun height=250" {
		t.Errorf("ParamLine = %q", pt.ParamLine)
	}
	if pt.Body != "x <- 1\nplot(x)" {
		t.Errorf("Body = %q", pt.Body)
	}
	if pt.Block != block {
		t.Error("Block 应指向原始标签块")
	}
}

func TestSplitBlockNoParams(t *testing.T) {
	block := &TaggedBlock{
		Tag:     "sandboxExamples",
		RawLine: "@sandboxExamples",
		Body:    []string{"write.csv(data, \"out.csv\")"},
	}

	pt := SplitBlock(block)

	if pt.ParamLine != "" {
		t.Errorf("ParamLine = %q, 期望空", pt.ParamLine)
	}
	if pt.Body != "write.csv(data, \"out.csv\")" {
		t.Errorf("Body = %q", pt.Body)
	}
}

func TestSplitBlockEmptyBody(t *testing.T) {
	block := &TaggedBlock{
		Tag:     "sandboxExamples",
		RawLine: "@sandboxExamples",
	}

	pt := SplitBlock(block)
	if pt.Body != "" {
		t.Errorf("Body = %q, 期望空", pt.Body)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(newStubHandler("a", "tagA")); err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	h, ok := r.GetByTag("tagA")
	if !ok || h.Name() != "a" {
		t.Error("GetByTag 未返回已注册的处理器")
	}
	if !r.IsRegistered("tagA") {
		t.Error("IsRegistered 应为 true")
	}
}

func TestRegistryTagConflict(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(newStubHandler("a", "shared")); err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	err := r.Register(newStubHandler("b", "shared"))
	if err == nil {
		t.Fatal("同名标签重复绑定应返回错误")
	}
	if !strings.Contains(err.Error(), "@shared") {
		t.Errorf("错误信息应包含冲突标签: %v", err)
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(newStubHandler("a", "tagA")); err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if err := r.Register(newStubHandler("a", "tagB")); err == nil {
		t.Fatal("同名处理器重复注册应返回错误")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(newStubHandler("a", "tagA", "tagB")); err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if err := r.Unregister("a"); err != nil {
		t.Fatalf("取消注册失败: %v", err)
	}

	if r.IsRegistered("tagA") || r.IsRegistered("tagB") {
		t.Error("取消注册后标签不应再存在")
	}
	if err := r.Unregister("a"); err == nil {
		t.Error("重复取消注册应返回错误")
	}
}

func TestFormatHelpText(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(newStubHandler("demo", "demoTag"))

	text := FormatHelpText(r)
	if !strings.Contains(text, "@demoTag") {
		t.Errorf("帮助信息应包含标签名: %q", text)
	}
	if !strings.Contains(text, "demo") {
		t.Errorf("帮助信息应包含处理器名: %q", text)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    RenderFormat
		wantErr bool
	}{
		{"html", FormatHTML, false},
		{"print", FormatPrint, false},
		{"text", FormatText, false},
		{"HTML", FormatHTML, false},
		{"pdf", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) 应返回错误", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) 失败: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, 期望 %v", tt.in, got, tt.want)
		}
	}
}
