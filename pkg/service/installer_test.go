package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/service"
	"github.com/benchrig/rigup/pkg/session"
	"github.com/benchrig/rigup/pkg/supervisor"
	"github.com/benchrig/rigup/pkg/testutil"
	"github.com/benchrig/rigup/pkg/types"
)

type harness struct {
	fs        *testutil.MemoryFS
	run       *testutil.FakeRunner
	ops       *testutil.FSOpsApplier
	installer *service.Installer
}

func newHarness() *harness {
	fs := testutil.NewMemoryFS()
	run := testutil.NewFakeRunner()
	ops := testutil.NewFSOpsApplier(fs)
	return &harness{
		fs:  fs,
		run: run,
		ops: ops,
		installer: service.NewInstaller(fs, ops,
			supervisor.New(run), session.New(run)),
	}
}

const (
	systemUnitPath = "/etc/systemd/system/benchrig.service"
	userUnitPath   = "/home/rig/.config/systemd/user/benchrig.service"
)

func TestTransitionToSystem(t *testing.T) {
	h := newHarness()
	h.run.Outputs["systemctl is-active"] = "active"
	cfg := loadConfig(t)
	ident := testutil.TestIdentity()

	outcome, err := h.installer.Transition(cfg, ident, types.ModelSystem)
	require.NoError(t, err)
	assert.Equal(t, types.StatusOK, outcome.Status)
	assert.Contains(t, outcome.Detail, "active")

	assert.True(t, h.fs.Exists(systemUnitPath))
	content, err := h.fs.ReadFile(systemUnitPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "WantedBy=graphical.target")

	assert.Contains(t, h.run.Commands, "systemctl daemon-reload")
	assert.Contains(t, h.run.Commands, "systemctl enable benchrig.service")
	assert.Contains(t, h.run.Commands, "systemctl restart benchrig.service")

	// The system model never reaches into the identity's home
	assert.False(t, h.fs.Exists(userUnitPath))
	assert.False(t, h.fs.Exists("/home/rig/.config/systemd/user"))
}

func TestTransitionToSystemLeavesUserTreeAlone(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.fs.WriteFile(userUnitPath, []byte("stale"), 0644))
	cfg := loadConfig(t)

	_, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ModelSystem)
	require.NoError(t, err)

	// A pre-existing user unit stays untouched
	content, err := h.fs.ReadFile(userUnitPath)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(content))
}

func TestTransitionToSystemIdempotent(t *testing.T) {
	h := newHarness()
	cfg := loadConfig(t)
	ident := testutil.TestIdentity()

	_, err := h.installer.Transition(cfg, ident, types.ModelSystem)
	require.NoError(t, err)
	_, err = h.installer.Transition(cfg, ident, types.ModelSystem)
	require.NoError(t, err)

	assert.True(t, h.fs.Exists(systemUnitPath))
	assert.Equal(t, 2, h.run.CountRan("systemctl restart benchrig.service"))
}

func TestTransitionToSystemSupervisorFailureIsFatal(t *testing.T) {
	h := newHarness()
	h.run.Failures["systemctl enable"] = assert.AnError
	cfg := loadConfig(t)

	_, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ModelSystem)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSupervisor), "got %v", err)
}

func TestTransitionToUserFresh(t *testing.T) {
	h := newHarness()
	cfg := loadConfig(t)
	ident := testutil.TestIdentity()

	outcome, err := h.installer.Transition(cfg, ident, types.ModelUser)
	require.NoError(t, err)
	assert.Equal(t, types.StatusOK, outcome.Status)

	assert.True(t, h.fs.Exists(userUnitPath))
	content, err := h.fs.ReadFile(userUnitPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "WantedBy=default.target")

	// The tree belongs to the identity, down to the unit file
	for _, p := range []string{
		"/home/rig/.config",
		"/home/rig/.config/systemd",
		"/home/rig/.config/systemd/user",
		userUnitPath,
	} {
		uid, gid, ok := h.fs.Owner(p)
		require.True(t, ok, "%s should exist", p)
		assert.Equal(t, 1000, uid, "uid of %s", p)
		assert.Equal(t, 1000, gid, "gid of %s", p)
	}

	assert.Contains(t, h.run.Commands, "loginctl enable-linger rig")
	assert.True(t, h.run.Ran("machinectl shell"))

	// No system-scope teardown ran on a fresh host
	assert.False(t, h.run.Ran("systemctl stop"))
}

func TestTransitionSystemToUserTearsDownSystemUnit(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.fs.WriteFile(systemUnitPath, []byte("old"), 0644))
	cfg := loadConfig(t)

	outcome, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ModelUser)
	require.NoError(t, err)
	assert.Equal(t, types.StatusOK, outcome.Status)

	assert.False(t, h.fs.Exists(systemUnitPath), "system unit must be removed")
	assert.True(t, h.fs.Exists(userUnitPath))

	assert.Contains(t, h.run.Commands, "systemctl stop benchrig.service")
	assert.Contains(t, h.run.Commands, "systemctl disable benchrig.service")
	assert.Contains(t, h.run.Commands, "systemctl daemon-reload")
}

func TestTransitionSystemToUserToleratesStopFailure(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.fs.WriteFile(systemUnitPath, []byte("old"), 0644))
	h.run.Failures["systemctl stop"] = assert.AnError
	h.run.Failures["systemctl disable"] = assert.AnError
	cfg := loadConfig(t)

	outcome, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ModelUser)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDegraded, outcome.Status)
	assert.False(t, h.fs.Exists(systemUnitPath))
	assert.True(t, h.fs.Exists(userUnitPath))
}

func TestTransitionSystemToUserUnitRemovalFailureIsFatal(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.fs.WriteFile(systemUnitPath, []byte("old"), 0644))
	h.ops.Err = assert.AnError
	cfg := loadConfig(t)

	_, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ModelUser)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnitRemove), "got %v", err)

	// The user unit must not be written when teardown failed
	assert.False(t, h.fs.Exists(userUnitPath))
}

func TestTransitionToUserLingerFailureDegrades(t *testing.T) {
	h := newHarness()
	h.run.Failures["loginctl"] = assert.AnError
	cfg := loadConfig(t)

	outcome, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ModelUser)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDegraded, outcome.Status)
	require.NotEmpty(t, outcome.Warnings)
	assert.Contains(t, outcome.Warnings[0], "lingering")
	assert.True(t, h.fs.Exists(userUnitPath))
}

func TestTransitionToUserIdempotent(t *testing.T) {
	h := newHarness()
	cfg := loadConfig(t)
	ident := testutil.TestIdentity()

	_, err := h.installer.Transition(cfg, ident, types.ModelUser)
	require.NoError(t, err)
	_, err = h.installer.Transition(cfg, ident, types.ModelUser)
	require.NoError(t, err)

	assert.True(t, h.fs.Exists(userUnitPath))
	// Teardown never ran: there was no system unit to remove
	assert.False(t, h.run.Ran("systemctl stop"))
}

func TestTransitionUnknownModel(t *testing.T) {
	h := newHarness()
	cfg := loadConfig(t)

	_, err := h.installer.Transition(cfg, testutil.TestIdentity(), types.ExecutionModel("both"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrModelConflict), "got %v", err)
}
