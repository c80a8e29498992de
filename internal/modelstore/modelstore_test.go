package modelstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/torque.report/internal/features"
	"github.com/banshee-data/torque.report/internal/fsutil"
	"github.com/banshee-data/torque.report/internal/torque"
)

func trainedModel(t *testing.T, holeID string, samples int) *torque.HoleModel {
	t.Helper()
	m := torque.NewHoleModel(holeID)
	for i := 0; i < samples; i++ {
		m.Update(features.Fingerprint{
			PeakTorque:    5.0 + float64(i%7)*0.01,
			SeatingAngle:  180,
			RigiditySlope: 0.05,
			TotalWork:     4.2,
			SnugTorque:    0.5,
		})
	}
	return m
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	models := map[string]*torque.HoleModel{
		"[1]1": trainedModel(t, "[1]1", 120),
		"[1]2": trainedModel(t, "[1]2", 3),
	}
	require.NoError(t, store.Save("CARRIER_001", models))

	loaded, err := store.Load("CARRIER_001")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	m := loaded["[1]1"]
	require.NotNil(t, m)
	assert.Equal(t, 120, m.Count)
	assert.Equal(t, torque.StatusEstablished, m.Status)
	require.NotNil(t, m.GoldenStats)
	assert.Equal(t, models["[1]1"].GoldenStats.Mean, m.GoldenStats.Mean)
	assert.Equal(t, models["[1]1"].GoldenStats.Std, m.GoldenStats.Std)
	require.NotNil(t, m.RollingStats)
	assert.InDelta(t, models["[1]1"].RollingStats.Mean[0], m.RollingStats.Mean[0], 1e-12)
	assert.Equal(t, models["[1]1"].RollingCount(), m.RollingCount())

	young := loaded["[1]2"]
	require.NotNil(t, young)
	assert.Equal(t, 3, young.Count)
	assert.Equal(t, torque.StatusShadowMode, young.Status)
	assert.Nil(t, young.GoldenStats)

	// The persisted form must survive the trip bit-exact.
	for holeID, orig := range models {
		if diff := cmp.Diff(orig.Snapshot(), loaded[holeID].Snapshot()); diff != "" {
			t.Errorf("snapshot mismatch for %s (-want +got):\n%s", holeID, diff)
		}
	}
}

func TestLoad_MissingCarrierIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	models, err := store.Load("NEVER_SEEN")
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestLoad_CorruptSnapshotPreservedAside(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "CARRIER_X.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	models, err := store.Load("CARRIER_X")
	require.NoError(t, err, "a corrupt snapshot must not stall the carrier")
	assert.Empty(t, models)

	kept, err := os.ReadFile(path + ".corrupted")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestSave_AtomicNoTempLeftBehind(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	store, err := New("models", fs)
	require.NoError(t, err)

	models := map[string]*torque.HoleModel{"h": trainedModel(t, "h", 5)}
	require.NoError(t, store.Save("C1", models))

	assert.True(t, fs.Exists(filepath.Join("models", "C1.json")))
	assert.False(t, fs.HasSuffixFile(".tmp"), "temp file must be renamed away")
}

// renameFailFS forces the commit step to fail.
type renameFailFS struct {
	*fsutil.MemoryFileSystem
}

func (f renameFailFS) Rename(oldpath, newpath string) error {
	return errors.New("rename refused")
}

func TestSave_RenameFailureCleansTemp(t *testing.T) {
	t.Parallel()

	fs := renameFailFS{fsutil.NewMemoryFileSystem()}
	store, err := New("models", fs)
	require.NoError(t, err)

	models := map[string]*torque.HoleModel{"h": trainedModel(t, "h", 5)}
	err = store.Save("C1", models)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit snapshot")
	assert.False(t, fs.HasSuffixFile(".tmp"), "partial temp file must be removed")
	assert.False(t, fs.Exists(filepath.Join("models", "C1.json")))
}

func TestPath_CarrierIDSanitized(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	store, err := New("models", fs)
	require.NoError(t, err)

	models := map[string]*torque.HoleModel{"h": trainedModel(t, "h", 1)}
	require.NoError(t, store.Save("../../etc/passwd", models))

	for _, name := range fs.Files() {
		assert.True(t, filepath.Dir(name) == "models", "snapshot escaped the store: %s", name)
	}
}

// The store plus a live session must survive a carrier swap with nothing
// lost: models learned for A are byte-for-byte restored when A returns.
func TestStoreSession_CarrierSwapLossless(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	sess := torque.NewSession(features.NewExtractor(0, 0), store, nil, 3.0)
	curve := features.Curve{
		Torque: []float64{0, 0.5, 1.2, 2.8, 4.5, 5.0},
		Angle:  []float64{0, 10.5, 45, 90, 150, 180},
		Time:   []float64{0.01, 0.05, 0.12, 0.25, 0.45, 0.6},
	}
	batch := map[string]features.Curve{"[1]1": curve}

	for i := 0; i < 3; i++ {
		_, err := sess.Diagnose("A", batch)
		require.NoError(t, err)
	}
	_, err = sess.Diagnose("B", batch)
	require.NoError(t, err)
	_, err = sess.Diagnose("A", batch)
	require.NoError(t, err)

	loaded, err := store.Load("A")
	require.NoError(t, err)
	require.Contains(t, loaded, "[1]1")
	assert.Equal(t, 4, loaded["[1]1"].Count, "three batches before the swap plus one after")
}
