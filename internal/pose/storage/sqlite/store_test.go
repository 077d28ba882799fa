package sqlite

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
	"github.com/banshee-data/pose.report/internal/pose/pipeline"
	"github.com/banshee-data/pose.report/internal/testutil"
	"github.com/banshee-data/pose.report/internal/timeutil"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "pose.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.MigrateUp())
	return s
}

func decodeTwoPeople(t *testing.T) *pipeline.Result {
	t.Helper()
	s := testutil.Standing()
	tn := testutil.NewBuilder(20, 24).Skeleton(s, 0.9).Skeleton(s.Shift(0, 12), 0.7).T
	d, err := pipeline.NewDecoder(pipeline.DefaultConfig())
	require.NoError(t, err)
	res, err := d.Decode(tn)
	require.NoError(t, err)
	require.Len(t, res.Bodies, 2)
	return res
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "pose.db"))
	require.NoError(t, err)
	defer s.Close()

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)

	require.NoError(t, s.MigrateUp())
	require.NoError(t, s.MigrateUp(), "second run is a no-op")
	v, dirty, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	require.NoError(t, s.MigrateDown())
	v, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestSaveAndLoadFrame(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, WithClock(timeutil.NewMockClock(epoch)))
	res := decodeTwoPeople(t)

	id, err := s.SaveFrame("cam0", res.Height, res.Width, res.Bodies)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	f, err := s.LoadFrame(id)
	require.NoError(t, err)
	assert.Equal(t, FrameSummary{
		FrameID:          id,
		Source:           "cam0",
		GridHeight:       20,
		GridWidth:        24,
		BodyCount:        2,
		CreatedUnixNanos: epoch.UnixNano(),
	}, f.FrameSummary)

	require.Len(t, f.Bodies, 2)
	assert.Equal(t, 16, f.Bodies[0].PartCount)
	assert.InDelta(t, res.Bodies[0].ConfidenceSum(), f.Bodies[0].ConfidenceSum, 1e-6)
	assert.InDelta(t, res.Bodies[1].ConfidenceSum(), f.Bodies[1].ConfidenceSum, 1e-6)

	if diff := cmp.Diff(pipeline.ToWire(res.Bodies), f.WireBodies()); diff != "" {
		t.Errorf("stored bodies differ (-decoded +stored):\n%s", diff)
	}
}

func TestSaveEmptyFrame(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	id, err := s.SaveFrame("", 8, 8, []*l4bodies.Body{})
	require.NoError(t, err)

	f, err := s.LoadFrame(id)
	require.NoError(t, err)
	assert.Zero(t, f.BodyCount)
	assert.NotNil(t, f.Bodies)
	assert.Empty(t, f.Bodies)
	assert.Empty(t, f.WireBodies())
}

func TestListFrames(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	s := newTestStore(t, WithClock(clock))

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.SaveFrame("cam", 4, 4, nil)
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Second)
	}

	frames, err := s.ListFrames(2)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, ids[2], frames[0].FrameID)
	assert.Equal(t, ids[1], frames[1].FrameID)

	all, err := s.ListFrames(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteFrame(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	res := decodeTwoPeople(t)
	id, err := s.SaveFrame("cam0", res.Height, res.Width, res.Bodies)
	require.NoError(t, err)

	require.NoError(t, s.DeleteFrame(id))
	_, err = s.LoadFrame(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteFrame(id), ErrNotFound)

	var limbs int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM pose_limbs`).Scan(&limbs))
	assert.Zero(t, limbs)
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	mux := http.NewServeMux()
	require.NoError(t, s.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	// Might be 403 for a non-local client, but the route must exist.
	assert.NotEqual(t, http.StatusNotFound, w.Code)
}

func TestBackupHandler(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.SaveFrame("cam0", 4, 4, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.handleBackup(w, httptest.NewRequest(http.MethodGet, "/debug/backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))

	gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("SQLite format 3")))
}
