package preflight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/errors"
	"github.com/benchrig/rigup/pkg/preflight"
	"github.com/benchrig/rigup/pkg/testutil"
)

func setup(t *testing.T) (config.Config, *testutil.MemoryFS, *testutil.FakeResolver) {
	t.Helper()
	fs := testutil.NewMemoryFS()
	cfg, err := config.Load(fs, "")
	require.NoError(t, err)
	cfg.SourceDir = "/srv/checkout"
	require.NoError(t, fs.WriteFile("/srv/checkout/run.py", []byte("print('hi')\n"), 0644))
	return cfg, fs, testutil.NewFakeResolver(testutil.TestIdentity())
}

func TestCheckHappyPath(t *testing.T) {
	cfg, fs, resolver := setup(t)

	checker := preflight.New(fs, resolver)
	checker.Euid = testutil.RootEuid

	ident, err := checker.Check(cfg)
	require.NoError(t, err)
	assert.Equal(t, "rig", ident.Username)
	assert.Equal(t, 1000, ident.UID)
	assert.Equal(t, "/home/rig", ident.Home)
}

func TestCheckRejectsUnprivileged(t *testing.T) {
	cfg, fs, resolver := setup(t)

	checker := preflight.New(fs, resolver)
	checker.Euid = testutil.UnprivilegedEuid

	_, err := checker.Check(cfg)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPrivilege), "got %v", err)
}

func TestCheckRejectsUnknownIdentity(t *testing.T) {
	cfg, fs, _ := setup(t)
	cfg.RunAsUser = "nobody-here"

	checker := preflight.New(fs, testutil.NewFakeResolver())
	checker.Euid = testutil.RootEuid

	_, err := checker.Check(cfg)
	assert.Error(t, err)
}

func TestCheckRejectsMissingPayload(t *testing.T) {
	cfg, fs, resolver := setup(t)
	cfg.SourceDir = "/srv/empty"

	checker := preflight.New(fs, resolver)
	checker.Euid = testutil.RootEuid

	_, err := checker.Check(cfg)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPayloadMissing), "got %v", err)
}
