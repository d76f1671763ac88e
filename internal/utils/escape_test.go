package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeRdPercent(t *testing.T) {
	assert.Equal(t, `a\%2Fb\%3D`, EscapeRdPercent("a%2Fb%3D"))
	assert.Equal(t, "no-escapes", EscapeRdPercent("no-escapes"))
	assert.Equal(t, "", EscapeRdPercent(""))
}

func TestUnescapeRdPercent(t *testing.T) {
	assert.Equal(t, "a%2Fb%3D", UnescapeRdPercent(`a\%2Fb\%3D`))

	// 往返恒等
	in := "100% of %s cases"
	assert.Equal(t, in, UnescapeRdPercent(EscapeRdPercent(in)))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"square", "square"},
		{"My Utils", "my-utils"},
		{"plot.data", "plot-data"},
		{"a__b--c", "a-b-c"},
		{"  spaced  ", "spaced"},
		{"", ""},
		{"...", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}
