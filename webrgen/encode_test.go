package webrgen

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/docgen/internal/utils"
)

// decodeShare 逆向解码负载，验证编码管线的每一步
func decodeShare(t *testing.T, payload string) []shareFile {
	t.Helper()

	switch {
	case strings.HasSuffix(payload, flagSuffix+autorunFlag):
		payload = strings.TrimSuffix(payload, flagSuffix+autorunFlag)
	case strings.HasSuffix(payload, flagSuffix):
		payload = strings.TrimSuffix(payload, flagSuffix)
	default:
		t.Fatalf("负载缺少格式标志后缀: %q", payload)
	}

	unescaped, err := url.QueryUnescape(utils.UnescapeRdPercent(payload))
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(unescaped)
	require.NoError(t, err)

	var files []shareFile
	require.NoError(t, sonic.Unmarshal(data, &files))
	return files
}

func TestEncodeShareRoundTrip(t *testing.T) {
	code := "x <- rnorm(100)\nhist(x) # 50% quantile\n"

	payload, err := EncodeShare(code, snippetFileName, false)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(payload, flagSuffix))

	files := decodeShare(t, payload)
	require.Len(t, files, 1)
	assert.Equal(t, "example.R", files[0].Name)
	assert.Equal(t, "/example.R", files[0].Path)
	assert.Equal(t, code, files[0].Text)
}

func TestEncodeShareAutorun(t *testing.T) {
	payload, err := EncodeShare("plot(1)", snippetFileName, true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(payload, flagSuffix+autorunFlag))

	files := decodeShare(t, payload)
	require.Len(t, files, 1)
	assert.Equal(t, "plot(1)", files[0].Text)
}

func TestEncodeShareDeterministic(t *testing.T) {
	a, err := EncodeShare("x <- 1", snippetFileName, false)
	require.NoError(t, err)
	b, err := EncodeShare("x <- 1", snippetFileName, false)
	require.NoError(t, err)

	// 相同输入必须产生字节级相同的输出
	assert.Equal(t, a, b)
}

func TestEncodeShareNoRawPercent(t *testing.T) {
	payload, err := EncodeShare("sprintf(\"%d%%\", 42)", snippetFileName, false)
	require.NoError(t, err)

	// 所有字面 % 都已转义为 \%
	stripped := strings.ReplaceAll(payload, `\%`, "")
	trimmed := strings.TrimSuffix(stripped, flagSuffix)
	assert.NotContains(t, trimmed, "%")
}

func TestSnippetID(t *testing.T) {
	a := SnippetID("abcdefghijKLMN")
	b := SnippetID("abcdefghijXYZ")
	c := SnippetID("different")

	// 只取前 10 个字符
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	// 短负载不越界
	assert.NotPanics(t, func() { SnippetID("ab") })
	assert.NotPanics(t, func() { SnippetID("") })
}

func TestShareURL(t *testing.T) {
	p := Defaults()
	assert.Equal(t,
		"https://webr.r-wasm.org/latest/#code=PAYLOAD",
		ShareURL(p, "PAYLOAD"))

	p.Version = "v0.6.0"
	p.Mode = "editor-plot"
	assert.Equal(t,
		"https://webr.r-wasm.org/v0.6.0/?mode=editor-plot#code=PAYLOAD",
		ShareURL(p, "PAYLOAD"))

	p.Channel = "post-message"
	assert.Equal(t,
		"https://webr.r-wasm.org/v0.6.0/?mode=editor-plot&channel=post-message#code=PAYLOAD",
		ShareURL(p, "PAYLOAD"))

	p.Mode = ""
	assert.Equal(t,
		"https://webr.r-wasm.org/v0.6.0/?channel=post-message#code=PAYLOAD",
		ShareURL(p, "PAYLOAD"))
}

func TestInstallSnippet(t *testing.T) {
	got := InstallSnippet("demo", "https://alice.github.io/demo/")

	assert.Contains(t, got, `install.packages("demo"`)
	assert.Contains(t, got, `"https://alice.github.io/demo/"`)
	assert.Contains(t, got, `"https://cran.r-project.org"`)
	// 以空行结尾，与后续示例代码隔开
	assert.True(t, strings.HasSuffix(got, "\n\n"))
}
