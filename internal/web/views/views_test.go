package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cdm/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestViewsEscapeText(t *testing.T) {
	const hostile = `<script>alert("x")</script>`
	tests := []struct {
		name string
		c    templ.Component
	}{
		{"error alert", ErrorAlert(core.UserMessage{Message: hostile, Action: hostile, Code: "UPL002"})},
		{"graph page", GraphPage(hostile, core.Graph{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.c)
			if strings.Contains(out, "<script>") {
				t.Errorf("output contains raw markup: %s", out)
			}
			if !strings.Contains(out, "&lt;script&gt;") {
				t.Errorf("output missing escaped text: %s", out)
			}
		})
	}
}
