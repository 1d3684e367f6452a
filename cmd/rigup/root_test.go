package rigup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provisioncmd "github.com/benchrig/rigup/pkg/commands/provision"
	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/types"
)

func TestRootCmdFlags(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "rigup", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, cmd.Flags().Lookup("config"))
	assert.NotNil(t, cmd.Flags().Lookup("model"))
}

func TestRootCmdHasVersionSubcommand(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "version")
}

func TestRootCmdRejectsInvalidModel(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--model", "both", "--config", "/nonexistent/rigup.toml"})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestRenderReport(t *testing.T) {
	cfg := config.Default()
	result := &provisioncmd.Result{
		Outcomes: []types.Outcome{
			types.OK("preflight", "preconditions satisfied"),
			types.Degraded("groups", "5/6 hardware groups ensured", []string{"group spi: absent"}),
			types.Skipped("python-deps", "dry-run"),
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, cfg, result)
	out := buf.String()

	assert.Contains(t, out, "preflight")
	assert.Contains(t, out, "preconditions satisfied")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "group spi: absent")
	assert.Contains(t, out, "skipped")
}
