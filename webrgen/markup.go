package webrgen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/donutnomad/docgen/plugin"
)

// fragmentData 链接/内嵌片段的模板数据
type fragmentData struct {
	URL    string
	Height int
	ID     uint32
}

// linkTemplate 链接形式：跳转按钮
var linkTemplate = template.Must(template.New("link").Funcs(sprig.FuncMap()).Parse(
	`<p class="docgen-webr">
  <a class="docgen-webr-button" href="{{ .URL }}" target="_blank" rel="noopener">Run this example in your browser</a>
</p>
<style>
.docgen-webr { --docgen-webr-accent: #1f65b7; }
.docgen-webr-button {
  display: inline-block;
  padding: .4rem .9rem;
  border-radius: 4px;
  background: var(--docgen-webr-accent);
  color: #fff;
  text-decoration: none;
}
</style>
`))

// embedTemplate 内嵌形式：占位块 + 惰性加载的 iframe
// 脚本函数名带数字标识，同一页面多个内嵌块互不干扰
var embedTemplate = template.Must(template.New("embed").Funcs(sprig.FuncMap()).Parse(
	`<div class="docgen-webr" id="docgen-webr-{{ .ID }}">
  <div class="docgen-webr-toolbar">
    <button type="button" onclick="docgenWebrShow{{ .ID }}()">Run this example in your browser</button>
    <button type="button" onclick="docgenWebrHide{{ .ID }}()" hidden>Hide</button>
    <button type="button" onclick="docgenWebrExpand{{ .ID }}()" hidden>Full screen</button>
  </div>
  <iframe data-src="{{ .URL }}" loading="lazy" hidden
          width="100%" height="{{ .Height }}"
          style="border: 1px solid var(--docgen-webr-border); border-radius: 4px;"></iframe>
</div>
<style>
#docgen-webr-{{ .ID }} {
  --docgen-webr-border: #ccc;
  --docgen-webr-height: {{ .Height }}px;
  --docgen-webr-frame-height: {{ add .Height 40 }}px;
  margin: 1rem 0;
  min-height: 2rem;
}
#docgen-webr-{{ .ID }}.docgen-webr-open { min-height: var(--docgen-webr-frame-height); }
#docgen-webr-{{ .ID }} .docgen-webr-toolbar button { margin-right: .5rem; }
</style>
<script>
function docgenWebrShow{{ .ID }}() {
  var root = document.getElementById("docgen-webr-{{ .ID }}");
  var frame = root.querySelector("iframe");
  if (!frame.src) { frame.src = frame.dataset.src; }
  frame.hidden = false;
  root.classList.add("docgen-webr-open");
  var buttons = root.querySelectorAll(".docgen-webr-toolbar button");
  buttons[0].hidden = true;
  buttons[1].hidden = false;
  buttons[2].hidden = false;
}
function docgenWebrHide{{ .ID }}() {
  var root = document.getElementById("docgen-webr-{{ .ID }}");
  root.querySelector("iframe").hidden = true;
  root.classList.remove("docgen-webr-open");
  var buttons = root.querySelectorAll(".docgen-webr-toolbar button");
  buttons[0].hidden = false;
  buttons[1].hidden = true;
  buttons[2].hidden = true;
}
function docgenWebrExpand{{ .ID }}() {
  var frame = document.getElementById("docgen-webr-{{ .ID }}").querySelector("iframe");
  if (frame.requestFullscreen) { frame.requestFullscreen(); }
}
</script>
`))

// RenderFragment 按输出格式生成附加段落内容
// HTML 输出完整标记（链接或内嵌，取决于 embed 参数）；
// 打印格式只输出纯 URL；其余格式输出一行说明文字
func RenderFragment(format plugin.RenderFormat, p ParamSet, shareURL string, id uint32) (string, error) {
	switch format {
	case plugin.FormatHTML:
		tmpl := linkTemplate
		if p.Embed {
			tmpl = embedTemplate
		}

		var buf bytes.Buffer
		err := tmpl.Execute(&buf, fragmentData{
			URL:    shareURL,
			Height: p.Height,
			ID:     id,
		})
		if err != nil {
			return "", fmt.Errorf("执行片段模板失败: %w", err)
		}
		return buf.String(), nil

	case plugin.FormatPrint:
		return shareURL, nil

	default:
		return "Run this example in your browser: " + shareURL, nil
	}
}
