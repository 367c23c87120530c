package jobtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"plain text collapses spaces", "Python   SQL\n\n  AWS ", "Python SQL\nAWS"},
		{"list items become lines", "<ul><li>Python</li><li>SQL</li></ul>", "Python\nSQL"},
		{"scripts dropped", "<div>Go<script>var x = 1</script></div><p>Kubernetes</p>", "Go\nKubernetes"},
		{"angle brackets without tags", "latency < 10ms and > 5 regions", "latency < 10ms and > 5 regions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<p>hello</p>"))
	assert.True(t, LooksLikeHTML("line<br/>break"))
	assert.False(t, LooksLikeHTML("C++ <3 Go"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown("<h2>Requirements</h2><ul><li>Go</li></ul>")
	assert.Contains(t, md, "Requirements")
	assert.True(t, strings.Contains(md, "- Go") || strings.Contains(md, "* Go"))

	assert.Equal(t, "plain text", Markdown("plain   text"))
}
