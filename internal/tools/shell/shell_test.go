package shell

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandRejectsNonWhitelisted(t *testing.T) {
	def := RunCommand(t.TempDir(), DefaultWhitelist)
	_, err := def.Handler(context.Background(), json.RawMessage(`{"command":"curl","args":["evil.example"]}`))
	assert.Error(t, err)
}

func TestRunCommandRunsWhitelistedCommand(t *testing.T) {
	if _, err := exec.LookPath("ls"); err != nil {
		t.Skip("ls not on PATH")
	}
	dir := t.TempDir()
	def := RunCommand(dir, DefaultWhitelist)
	out, err := def.Handler(context.Background(), json.RawMessage(`{"command":"ls","args":[]}`))
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "ls", m["command"])
}

func TestRunPythonSnippetRequiresCode(t *testing.T) {
	def := RunPythonSnippet(t.TempDir())
	_, err := def.Handler(context.Background(), json.RawMessage(`{"code":""}`))
	assert.Error(t, err)
}

func TestRunPythonSnippetExecutesCode(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not on PATH")
	}
	dir := t.TempDir()
	def := RunPythonSnippet(dir)
	out, err := def.Handler(context.Background(), json.RawMessage(`{"code":"print(1+1)"}`))
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "2\n", m["stdout"])
}
