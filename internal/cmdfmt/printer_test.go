package cmdfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePrinter(t *testing.T) {
	var out strings.Builder
	p := NewPrinter(&out, []string{"type", "size"}, false, false)
	p.AppendRow("rootfs", "1000")
	require.NoError(t, p.Render())

	assert.Contains(t, out.String(), "TYPE")
	assert.Contains(t, out.String(), "rootfs")
	assert.Contains(t, out.String(), "1000")
}

func TestJSONPrinter(t *testing.T) {
	var out strings.Builder
	p := NewPrinter(&out, []string{"type", "size"}, true, false)
	p.AppendRow("rootfs", "1000")
	p.AppendRow("kernel", "42")
	require.NoError(t, p.Render())

	assert.JSONEq(t, `[{"type":"rootfs","size":"1000"},{"type":"kernel","size":"42"}]`, out.String())
}
