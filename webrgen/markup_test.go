package webrgen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/docgen/plugin"
)

const testURL = "https://webr.r-wasm.org/latest/#code=PAYLOAD"

func TestRenderFragmentLink(t *testing.T) {
	p := Defaults()

	got, err := RenderFragment(plugin.FormatHTML, p, testURL, 42)
	require.NoError(t, err)

	assert.Contains(t, got, `href="`+testURL+`"`)
	assert.Contains(t, got, "docgen-webr-button")
	// 链接形式不含 iframe
	assert.NotContains(t, got, "<iframe")
}

func TestRenderFragmentEmbed(t *testing.T) {
	p := Defaults()
	p.Embed = true
	p.Height = 250

	got, err := RenderFragment(plugin.FormatHTML, p, testURL, 42)
	require.NoError(t, err)

	assert.Contains(t, got, "<iframe")
	assert.Contains(t, got, `data-src="`+testURL+`"`)
	assert.Contains(t, got, `height="250"`)
	// 脚本函数名和容器 id 带数字标识
	assert.Contains(t, got, "docgen-webr-42")
	assert.Contains(t, got, "docgenWebrShow42()")
	// 展开后的高度为 iframe 高度加工具栏余量
	assert.Contains(t, got, fmt.Sprintf("%dpx", 250+40))
}

func TestRenderFragmentPrint(t *testing.T) {
	got, err := RenderFragment(plugin.FormatPrint, Defaults(), testURL, 42)
	require.NoError(t, err)

	// 打印格式只输出纯 URL
	assert.Equal(t, testURL, got)
}

func TestRenderFragmentText(t *testing.T) {
	got, err := RenderFragment(plugin.FormatText, Defaults(), testURL, 42)
	require.NoError(t, err)

	assert.Equal(t, "Run this example in your browser: "+testURL, got)
}
