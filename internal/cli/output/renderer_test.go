package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compilertools/dgcheck/pkg/core"
)

func newBufRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errW := &bytes.Buffer{}
	return NewRenderer(out, errW, mode), out, errW
}

func TestEffectiveMode(t *testing.T) {
	r, _, _ := newBufRenderer(ModeAuto)
	// A bytes.Buffer is not a terminal, so auto resolves to markdown.
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newBufRenderer(ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())

	r, _, _ = newBufRenderer("")
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestJSON(t *testing.T) {
	r, out, _ := newBufRenderer(ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"pass": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["pass"])
}

func TestPrintfAndWarning(t *testing.T) {
	r, out, errW := newBufRenderer(ModeText)
	r.Printf("found %d tests\n", 2)
	r.Println("done")
	r.Warning("stale baseline entry")
	r.Error("boom")

	assert.Equal(t, "found 2 tests\ndone\n", out.String())
	assert.Contains(t, errW.String(), "stale baseline entry")
	assert.Contains(t, errW.String(), "boom")
}

func TestStatus_NoColorOnBuffers(t *testing.T) {
	r, _, _ := newBufRenderer(ModeText)
	// Buffers never enable color, so statuses render unstyled.
	assert.Equal(t, "PASS", r.Status(core.StatusPass))
	assert.Equal(t, "FAIL", r.Status(core.StatusFail))
	assert.Equal(t, "UNSUPPORTED", r.Status(core.StatusUnsupported))
}

func TestTable_Markdown(t *testing.T) {
	r, out, _ := newBufRenderer(ModeMarkdown)
	r.Table([]string{"Test", "Status"}, [][]string{
		{"arm/neon-vshl-imm-1.c", "PASS"},
		{"sh/pr50749-sf-postinc-3.c", "FAIL"},
	})

	got := out.String()
	assert.Contains(t, got, "| arm/neon-vshl-imm-1.c |")
	assert.Contains(t, got, "PASS")
	assert.Contains(t, got, "FAIL")
}

func TestTable_Text(t *testing.T) {
	r, out, _ := newBufRenderer(ModeText)
	r.Table([]string{"Check", "Status"}, [][]string{{"compiler", "ok"}})

	got := out.String()
	assert.Contains(t, got, "compiler")
	assert.Contains(t, got, "ok")
}
