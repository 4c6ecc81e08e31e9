package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	tests := map[string]OutputMode{
		"":         ModeAuto,
		"auto":     ModeAuto,
		"TEXT":     ModeText,
		"markdown": ModeMarkdown,
		"md":       ModeMarkdown,
		" json ":   ModeJSON,
		"xml":      ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, Mode(in), in)
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto tty", ModeAuto, true, ModeText},
		{"auto pipe", ModeAuto, false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"explicit text on pipe", ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Messages(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	r := NewRendererWithTTY(out, errOut, false, ModeMarkdown)

	r.Success("wrote 3 files")
	r.Warning("lock file missing")
	assert.Equal(t, "- wrote 3 files\n", out.String())
	assert.Equal(t, "Warning: lock file missing\n", errOut.String())

	out.Reset()
	NewRendererWithTTY(out, errOut, false, ModeJSON).Success("ignored")
	assert.Empty(t, out.String(), "json mode keeps stdout machine-readable")
}

func TestRenderer_TextWithoutTTYHasNoANSI(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeText)
	r.Println(r.Styles().Header1.Render("Syscalls"))
	assert.Equal(t, "Syscalls\n", out.String())
}

func TestMarkdownHelpers(t *testing.T) {
	assert.Equal(t, "## Syscalls", FormatHeader(2, "Syscalls"))
	assert.Equal(t, "- **Count**: 24", FormatKeyValue("Count", "24"))
	assert.Equal(t, "| 0 | open | value |", FormatTableRow("0", "open", "value"))
}

func TestRenderer_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeJSON)
	require.NoError(t, r.JSON(ValidateOutput{Valid: true, Source: "built-in", Count: 24}))
	assert.JSONEq(t, `{"valid":true,"source":"built-in","count":24}`, out.String())
}
