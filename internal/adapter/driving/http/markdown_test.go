package httphandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	assert.Empty(t, RenderMarkdown(""))

	out := RenderMarkdown("Easy **run** tomorrow")
	assert.Contains(t, out, "<strong>run</strong>")

	out = RenderMarkdown("- 4x1mi\n- 2min rest")
	assert.Contains(t, out, "<li>4x1mi</li>")
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	out := RenderMarkdown(`hello <script>alert("x")</script> world`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestRenderMarkdown_StripsEventHandlers(t *testing.T) {
	out := RenderMarkdown(`<a href="https://example.com" onclick="steal()">link</a>`)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "example.com")
}
