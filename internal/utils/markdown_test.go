package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**hi** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>hi</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, "", string(RenderMarkdown("   ")))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "nice!", StripHTML("  <b>nice!</b> "))
	assert.False(t, strings.Contains(StripHTML(`<img src=x onerror=alert(1)>hey`), "<"))
}

func TestStripHTMLKeepsPlainPunctuation(t *testing.T) {
	assert.Equal(t, "it's Tom & Jerry", StripHTML("it's Tom & Jerry"))
}
