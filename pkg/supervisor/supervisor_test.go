package supervisor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/supervisor"
	"github.com/benchrig/rigup/pkg/testutil"
)

func TestUnitLifecycle(t *testing.T) {
	run := testutil.NewFakeRunner()
	c := supervisor.New(run)

	require.NoError(t, c.DaemonReload())
	require.NoError(t, c.Enable("benchrig"))
	require.NoError(t, c.Restart("benchrig"))
	require.NoError(t, c.Stop("benchrig"))
	require.NoError(t, c.Disable("benchrig"))

	assert.Equal(t, []string{
		"systemctl daemon-reload",
		"systemctl enable benchrig.service",
		"systemctl restart benchrig.service",
		"systemctl stop benchrig.service",
		"systemctl disable benchrig.service",
	}, run.Commands)
}

func TestUnitNameSuffixNotDoubled(t *testing.T) {
	run := testutil.NewFakeRunner()
	c := supervisor.New(run)

	require.NoError(t, c.Enable("benchrig.service"))
	assert.Contains(t, run.Commands, "systemctl enable benchrig.service")
}

func TestFailureCarriesSupervisorCode(t *testing.T) {
	run := testutil.NewFakeRunner()
	run.Failures["systemctl restart"] = assert.AnError
	c := supervisor.New(run)

	err := c.Restart("benchrig")
	assert.True(t, errors.IsErrorCode(err, errors.ErrSupervisor), "got %v", err)
}

func TestIsActive(t *testing.T) {
	run := testutil.NewFakeRunner()
	run.Outputs["systemctl is-active"] = "active"
	c := supervisor.New(run)

	assert.Equal(t, "active", c.IsActive("benchrig"))
}

func TestIsActiveFoldsErrorToInactive(t *testing.T) {
	run := testutil.NewFakeRunner()
	run.Failures["systemctl is-active"] = assert.AnError
	c := supervisor.New(run)

	assert.Equal(t, "inactive", c.IsActive("benchrig"))
}

func TestEnableLinger(t *testing.T) {
	run := testutil.NewFakeRunner()
	c := supervisor.New(run)

	require.NoError(t, c.EnableLinger("rig"))
	assert.Contains(t, run.Commands, "loginctl enable-linger rig")

	run.Failures["loginctl"] = assert.AnError
	err := c.EnableLinger("rig")
	assert.True(t, errors.IsErrorCode(err, errors.ErrSupervisor), "got %v", err)
}
