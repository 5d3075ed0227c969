package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_NonFileIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestRenderer_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeAuto)

	r.Header(1, "Tables (2)")
	r.List([]string{"CustTable", "SalesTable"})
	r.KeyValue("Module", "Sales")
	r.Table([]string{"Direction", "Table"}, [][]string{{"inward", "SalesLine"}})

	got := out.String()
	assert.Contains(t, got, "# Tables (2)\n\n")
	assert.Contains(t, got, "- CustTable\n- SalesTable\n")
	assert.Contains(t, got, "**Module:** Sales\n")
	assert.Contains(t, strings.ToLower(got), "| direction | table |")
	assert.Contains(t, got, "| inward | SalesLine |")
}

func TestRenderer_TextHasNoANSIWithoutTTY(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeText)

	r.Header(1, "Modules")
	r.Table([]string{"Module"}, [][]string{{"Sales"}})

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Modules\n")
	assert.Contains(t, out.String(), "│ Sales  │")
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.JSON(map[string][]string{"tables": {"A"}}))
	assert.Equal(t, "{\n  \"tables\": [\n    \"A\"\n  ]\n}\n", out.String())
}

func TestRenderer_Diagnostics(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeText)

	r.Success("wrote schema.dbml")
	r.Warning("table Nope not found")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "✓ wrote schema.dbml")
	assert.Contains(t, errOut.String(), "! table Nope not found")
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# A", FormatHeader(0, "A"))
	assert.Equal(t, "### A", FormatHeader(3, "A"))
}
