package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Title\n\nHello **world**")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>world</strong>")
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	out := RenderMarkdown("hi <script>alert(1)</script>")
	assert.False(t, strings.Contains(out, "<script"), out)
}

func TestRenderMarkdown_EnhancesImages(t *testing.T) {
	out := RenderMarkdown("![cat](https://example.com/cat.png)")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}
