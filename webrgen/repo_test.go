package webrgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRepositoryExplicit(t *testing.T) {
	desc := descFrom(t, `Package: demo
Config/webr/repository: https://example.com/custom-repo
URL: https://alice.github.io/demo/
`)

	repo, err := DetectRepository(desc)
	require.NoError(t, err)
	// 显式配置优先于 URL 字段检测
	assert.Equal(t, "https://example.com/custom-repo", repo)
}

func TestDetectRepositoryPages(t *testing.T) {
	desc := descFrom(t, `Package: demo
URL: https://alice.github.io/demo/, https://github.com/alice/demo
`)

	repo, err := DetectRepository(desc)
	require.NoError(t, err)
	assert.Equal(t, "https://alice.github.io/demo/", repo)
}

func TestDetectRepositoryPagesBeatsUniverse(t *testing.T) {
	// Pages 形式优先，即使 universe 形式排在前面
	desc := descFrom(t, `Package: demo
URL: https://alice.r-universe.dev, https://alice.github.io/demo/
`)

	repo, err := DetectRepository(desc)
	require.NoError(t, err)
	assert.Equal(t, "https://alice.github.io/demo/", repo)
}

func TestDetectRepositoryUniverse(t *testing.T) {
	desc := descFrom(t, `Package: demo
URL: https://github.com/alice/demo, https://alice.r-universe.dev
`)

	repo, err := DetectRepository(desc)
	require.NoError(t, err)
	assert.Equal(t, "https://alice.r-universe.dev", repo)
}

func TestDetectRepositoryNoMatch(t *testing.T) {
	desc := descFrom(t, `Package: demo
URL: https://github.com/alice/demo, https://alice.example.org/demo/
`)

	_, err := DetectRepository(desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDetectRepositoryNoURLField(t *testing.T) {
	desc := descFrom(t, "Package: demo\n")

	_, err := DetectRepository(desc)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPagesRegex(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://alice.github.io/demo/", true},
		{"https://alice.github.io/demo", true},
		{"http://alice.github.io/demo/", true},
		{"https://alice.github.io/", false},  // 缺项目名
		{"https://github.io/demo/", false},   // 缺用户名
		{"https://alice.github.io/a/b", false}, // 多级路径
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pagesRegex.MatchString(tt.in), "pages %q", tt.in)
	}
}

func TestUniverseRegex(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://alice.r-universe.dev", true},
		{"https://alice.r-universe.dev/", true},
		{"https://alice.r-universe.dev/demo", false},
		{"https://r-universe.dev", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, universeRegex.MatchString(tt.in), "universe %q", tt.in)
	}
}
