package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "watcher version")
	assert.Contains(t, out.String(), version)
	assert.Contains(t, out.String(), "commit:")
	assert.Contains(t, out.String(), commit)
	assert.Contains(t, out.String(), runtime.Version())
}

func TestSnippetTruncation(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))

	long := "The archives stretch across every timeline."
	got := snippet(long, 12)
	require.Len(t, []rune(got), 15)
	assert.Equal(t, "The archives...", got)
}
