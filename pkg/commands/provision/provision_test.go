package provision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provisioncmd "github.com/benchrig/rigup/pkg/commands/provision"
	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/testutil"
	"github.com/benchrig/rigup/pkg/types"
)

type world struct {
	fs   *testutil.MemoryFS
	run  *testutil.FakeRunner
	opts provisioncmd.Options
}

// newWorld builds a fake host with the payload checked out and the
// run-as identity present.
func newWorld(t *testing.T) *world {
	t.Helper()
	fs := testutil.NewMemoryFS()

	cfg, err := config.Load(fs, "")
	require.NoError(t, err)
	cfg.SourceDir = "/srv/checkout"
	require.NoError(t, fs.WriteFile("/srv/checkout/run.py", []byte("print('hi')\n"), 0644))
	require.NoError(t, fs.WriteFile("/srv/checkout/requirements.txt", []byte("pyserial\n"), 0644))

	run := testutil.NewFakeRunner()
	return &world{
		fs:  fs,
		run: run,
		opts: provisioncmd.Options{
			Config:   cfg,
			FS:       fs,
			Runner:   run,
			Resolver: testutil.NewFakeResolver(testutil.TestIdentity()),
			Ops:      testutil.NewFSOpsApplier(fs),
			Euid:     testutil.RootEuid,
		},
	}
}

func stageStatus(t *testing.T, result *provisioncmd.Result, stage string) types.OutcomeStatus {
	t.Helper()
	for _, o := range result.Outcomes {
		if o.Stage == stage {
			return o.Status
		}
	}
	t.Fatalf("no outcome for stage %q in %+v", stage, result.Outcomes)
	return ""
}

func TestRunFreshSystemModel(t *testing.T) {
	w := newWorld(t)

	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)
	assert.False(t, result.Degraded())
	assert.Equal(t, "rig", result.Identity.Username)

	for _, stage := range []string{"preflight", "filesystem", "system-deps", "python-deps", "groups", "service"} {
		assert.Equal(t, types.StatusOK, stageStatus(t, result, stage), "stage %s", stage)
	}

	// Filesystem layout converged
	assert.True(t, w.fs.Exists("/opt/benchrig"))
	assert.True(t, w.fs.Exists("/var/log/benchrig"))
	assert.True(t, w.fs.Exists("/var/lib/benchrig"))

	// Dependencies and groups ran
	assert.True(t, w.run.Ran("apt-get install -y"))
	assert.True(t, w.run.Ran("python3 -m venv --system-site-packages"))
	assert.True(t, w.run.Ran("usermod -aG gpio rig"))

	// System unit written and activated
	assert.True(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))
	assert.True(t, w.run.Ran("systemctl enable benchrig.service"))
	assert.True(t, w.run.Ran("systemctl restart benchrig.service"))
}

func TestRunIsIdempotent(t *testing.T) {
	w := newWorld(t)

	_, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)

	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)
	assert.False(t, result.Degraded())

	assert.True(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))
	assert.Equal(t, 2, w.run.CountRan("systemctl restart benchrig.service"))
}

func TestRunSystemToUserMigration(t *testing.T) {
	w := newWorld(t)

	_, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)
	require.True(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))

	w.opts.Config.Model = types.ModelUser
	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)
	assert.False(t, result.Degraded())

	// Exactly one descriptor remains, in the user tree
	assert.False(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))
	assert.True(t, w.fs.Exists("/home/rig/.config/systemd/user/benchrig.service"))

	assert.True(t, w.run.Ran("systemctl stop benchrig.service"))
	assert.True(t, w.run.Ran("loginctl enable-linger rig"))
	assert.True(t, w.run.Ran("machinectl shell"))
}

func TestRunUserModelNeverTouchesSystemTree(t *testing.T) {
	w := newWorld(t)
	w.opts.Config.Model = types.ModelUser

	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)
	assert.False(t, result.Degraded())

	assert.True(t, w.fs.Exists("/home/rig/.config/systemd/user/benchrig.service"))
	assert.False(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))
	assert.False(t, w.run.Ran("systemctl stop"))
}

func TestRunMissingManifestDegrades(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.fs.Remove("/srv/checkout/requirements.txt"))

	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDegraded, stageStatus(t, result, "python-deps"))
	assert.True(t, result.Degraded())
	// Provisioning still reaches the service stage
	assert.Equal(t, types.StatusOK, stageStatus(t, result, "service"))
}

func TestRunAbsentGroupDegrades(t *testing.T) {
	w := newWorld(t)
	w.run.Failures["usermod -aG spi"] = assert.AnError

	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)

	assert.Equal(t, types.StatusDegraded, stageStatus(t, result, "groups"))
	assert.Equal(t, types.StatusOK, stageStatus(t, result, "service"))
}

func TestRunUnprivilegedMutatesNothing(t *testing.T) {
	w := newWorld(t)
	w.opts.Euid = testutil.UnprivilegedEuid

	result, err := provisioncmd.Run(w.opts)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPrivilege), "got %v", err)
	assert.Equal(t, types.StatusFailed, stageStatus(t, result, "preflight"))

	assert.Empty(t, w.run.Commands)
	assert.False(t, w.fs.Exists("/opt/benchrig"))
}

func TestRunDryRunMutatesNothing(t *testing.T) {
	w := newWorld(t)
	w.opts.DryRun = true

	result, err := provisioncmd.Run(w.opts)
	require.NoError(t, err)

	assert.Equal(t, types.StatusOK, stageStatus(t, result, "preflight"))
	for _, stage := range []string{"filesystem", "system-deps", "python-deps", "groups", "service"} {
		assert.Equal(t, types.StatusSkipped, stageStatus(t, result, stage), "stage %s", stage)
	}

	assert.Empty(t, w.run.Commands)
	assert.False(t, w.fs.Exists("/opt/benchrig"))
	assert.False(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))
}

func TestRunSystemDepsFailureStopsPipeline(t *testing.T) {
	w := newWorld(t)
	w.run.Failures["apt-get"] = assert.AnError

	result, err := provisioncmd.Run(w.opts)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPackageInstall), "got %v", err)
	assert.Equal(t, types.StatusFailed, stageStatus(t, result, "system-deps"))

	// Later stages never ran
	assert.False(t, w.run.Ran("usermod"))
	assert.False(t, w.fs.Exists("/etc/systemd/system/benchrig.service"))

	// Earlier stages are kept: re-running converges from here
	assert.True(t, w.fs.Exists("/opt/benchrig"))
}

func TestRunInvalidConfig(t *testing.T) {
	w := newWorld(t)
	w.opts.Config.Model = "both"

	_, err := provisioncmd.Run(w.opts)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
}
