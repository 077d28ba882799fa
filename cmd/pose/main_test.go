package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pose.report/internal/pose/debug"
	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/pipeline"
	"github.com/banshee-data/pose.report/internal/testutil"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func writeTensor(t *testing.T, tn *l1tensor.Tensor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tensor.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, l1tensor.EncodeEnvelope(f, tn))
	return path
}

func twoPeople() *l1tensor.Tensor {
	s := testutil.Standing()
	return testutil.NewBuilder(20, 24).Skeleton(s, 0.9).Skeleton(s.Shift(0, 12), 0.8).T
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pose "), out)
}

func TestUnknownCommand(t *testing.T) {
	_, err := runCmd(t, "", "train")
	assert.ErrorContains(t, err, `unknown command "train"`)

	_, err = runCmd(t, "")
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runCmd(t, "", "-log-level", "loud", "version")
	assert.Error(t, err)
}

func TestDecodeCommand(t *testing.T) {
	path := writeTensor(t, twoPeople())

	out, err := runCmd(t, "", "decode", "-in", path)
	require.NoError(t, err)

	bodies, err := pipeline.UnmarshalBodies([]byte(out))
	require.NoError(t, err)
	assert.Len(t, bodies, 2)
}

func TestDecodeCommandStdin(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, l1tensor.EncodeEnvelope(&buf, l1tensor.Zeros(4, 4)))

	out, err := runCmd(t, buf.String(), "decode")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestDecodeCommandStoresAndPlots(t *testing.T) {
	path := writeTensor(t, twoPeople())
	db := filepath.Join(t.TempDir(), "pose.db")
	plots := filepath.Join(t.TempDir(), "plots")

	_, err := runCmd(t, "", "decode", "-in", path, "-db", db, "-debug-dir", plots, "-source", "test")
	require.NoError(t, err)

	for _, name := range debug.Files {
		_, err := os.Stat(filepath.Join(plots, name))
		assert.NoError(t, err, name)
	}

	out, err := runCmd(t, "", "migrate", "-db", db, "version")
	require.NoError(t, err)
	assert.Equal(t, "version 1 dirty=false\n", out)
}

func TestDecodeCommandBadConfig(t *testing.T) {
	path := writeTensor(t, twoPeople())

	_, err := runCmd(t, "", "decode", "-in", path, "-config", "tuning.yaml")
	assert.Error(t, err)
}

func TestMatchCommand(t *testing.T) {
	s := testutil.Standing()
	raised := testutil.Standing()
	raised[l2parts.LWrist] = testutil.Point{Y: 1, X: 8}
	a := writeTensor(t, testutil.NewBuilder(20, 24).Skeleton(raised, 0.9).Skeleton(s.Shift(0, 12), 0.8).T)
	// Only the right-hand person remains, one row lower.
	b := writeTensor(t, testutil.NewBuilder(20, 24).Skeleton(s.Shift(1, 12), 0.8).T)

	out, err := runCmd(t, "", "match", "-a", a, "-b", b)
	require.NoError(t, err)

	var entries []matchEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Body)
	assert.Equal(t, 1, entries[0].Previous)
	require.NotNil(t, entries[0].Distance)
	assert.InDelta(t, 0, *entries[0].Distance, 1e-6)
}

func TestMatchCommandRequiresInputs(t *testing.T) {
	_, err := runCmd(t, "", "match", "-a", "only.json")
	assert.ErrorContains(t, err, "-a and -b are required")
}

func TestMigrateCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "pose.db")

	out, err := runCmd(t, "", "migrate", "-db", db, "version")
	require.NoError(t, err)
	assert.Equal(t, "version 0 dirty=false\n", out)

	out, err = runCmd(t, "", "migrate", "-db", db, "up")
	require.NoError(t, err)
	assert.Equal(t, "version 1 dirty=false\n", out)

	_, err = runCmd(t, "", "migrate", "-db", db, "sideways")
	assert.Error(t, err)

	t.Setenv("POSE_DB", "")
	_, err = runCmd(t, "", "migrate")
	assert.ErrorContains(t, err, "-db is required")
}
