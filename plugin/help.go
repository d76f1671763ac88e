package plugin

import (
	"fmt"
	"sort"
	"strings"
)

// FormatHelpText 为所有注册的处理器生成帮助文本
func FormatHelpText(registry *Registry) string {
	handlers := registry.Handlers()
	if len(handlers) == 0 {
		return "  (暂无已注册的标签处理器)\n"
	}

	sort.Slice(handlers, func(i, j int) bool {
		return handlers[i].Name() < handlers[j].Name()
	})

	var sb strings.Builder

	for _, h := range handlers {
		tags := h.Tags()
		if len(tags) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("  @%s - %s\n", tags[0], h.Describe()))
		sb.WriteString(fmt.Sprintf("    处理器: %s\n", h.Name()))

		sb.WriteString("    示例:\n")
		sb.WriteString(fmt.Sprintf("      #' @%s\n", tags[0]))
		sb.WriteString("      #' x <- rnorm(10)\n")
		sb.WriteString("      #' mean(x)\n")

		sb.WriteString("\n")
	}

	return sb.String()
}
