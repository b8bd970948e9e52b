package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterPlainOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)
	assert.False(t, p.Color)

	p.Success("logged in as %s", "admin")
	p.Info("2 projects")
	p.Error("failed: %v", "boom")

	assert.Equal(t, "✓ logged in as admin\nℹ 2 projects\n", out.String())
	assert.Equal(t, "✗ failed: boom\n", errOut.String())
}

func TestPrinterColor(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out, Err: &out, Color: true}
	p.Warning("careful")
	assert.Equal(t, ColorYellow+"⚠"+ColorReset+" careful\n", out.String())
}

func TestTableAligns(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out)
	require.NoError(t, p.Table([]string{"ID", "STATUS"}, [][]string{{"1", "open"}, {"12", "closed"}}))
	assert.Equal(t, "ID  STATUS\n1   open\n12  closed\n", out.String())
}

func TestGenerateCompletion(t *testing.T) {
	cmds := []Command{{Name: "login", Summary: "Log in"}, {Name: "projects", Summary: "List projects"}}

	var bash bytes.Buffer
	require.NoError(t, GenerateCompletion(&bash, "bash", "kaiactl", cmds))
	assert.Contains(t, bash.String(), `compgen -W "login projects"`)
	assert.Contains(t, bash.String(), "complete -F _kaiactl_completion kaiactl")

	var zsh bytes.Buffer
	require.NoError(t, GenerateCompletion(&zsh, "zsh", "kaiactl", cmds))
	assert.Contains(t, zsh.String(), "'projects:List projects'")

	var fish bytes.Buffer
	require.NoError(t, GenerateCompletion(&fish, "fish", "kaiactl", cmds))
	assert.Contains(t, fish.String(), `-a "login" -d "Log in"`)

	assert.Error(t, GenerateCompletion(&bash, "powershell", "kaiactl", cmds))
}
