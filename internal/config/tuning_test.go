package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptyTuningConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyTuningConfig()
	assert.Equal(t, 4, cfg.GetNMSWindowSize())
	assert.Equal(t, 0.15, cfg.GetNMSThreshold())
	assert.Equal(t, 4.4, cfg.GetTotalPAFScoreThreshold())
	assert.Equal(t, 0.1, cfg.GetStepPAFScoreThreshold())
	assert.Equal(t, 2, cfg.GetPAFCountThreshold())
	assert.Equal(t, 5, cfg.GetMinBodyPartCount())
	assert.Equal(t, 200.0, cfg.GetMatchingBoundingBoxSize())
	assert.Zero(t, cfg.GetMatchingMaxDistance())
	assert.False(t, cfg.GetDebugVisualisationEnabled())
	assert.Empty(t, cfg.GetDebugVisualisationOutputPath())
	assert.NoError(t, cfg.Validate())
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	t.Parallel()

	cfg := MustLoadDefaultConfig()
	empty := EmptyTuningConfig()
	assert.Equal(t, empty.GetNMSWindowSize(), cfg.GetNMSWindowSize())
	assert.Equal(t, empty.GetNMSThreshold(), cfg.GetNMSThreshold())
	assert.Equal(t, empty.GetTotalPAFScoreThreshold(), cfg.GetTotalPAFScoreThreshold())
	assert.Equal(t, empty.GetStepPAFScoreThreshold(), cfg.GetStepPAFScoreThreshold())
	assert.Equal(t, empty.GetPAFCountThreshold(), cfg.GetPAFCountThreshold())
	assert.Equal(t, empty.GetMinBodyPartCount(), cfg.GetMinBodyPartCount())
	assert.Equal(t, empty.GetMatchingBoundingBoxSize(), cfg.GetMatchingBoundingBoxSize())
	assert.Equal(t, empty.GetDebugVisualisationEnabled(), cfg.GetDebugVisualisationEnabled())
}

func TestLoadTuningConfigPartial(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "tuning.json", `{
  "nms_window_size": 3,
  "min_body_part_count": 1,
  "debug_visualisation_enabled": true,
  "debug_visualisation_output_path": "/tmp/pose"
}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GetNMSWindowSize())
	assert.Equal(t, 1, cfg.GetMinBodyPartCount())
	assert.True(t, cfg.GetDebugVisualisationEnabled())
	assert.Equal(t, "/tmp/pose", cfg.GetDebugVisualisationOutputPath())
	// Omitted keys keep their defaults.
	assert.Equal(t, 4.4, cfg.GetTotalPAFScoreThreshold())
	assert.Nil(t, cfg.NMSThreshold)
}

func TestLoadTuningConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "tuning.yaml", `{}`, ".json extension"},
		{"syntax", "bad.json", `{"nms_window_size":`, "failed to parse"},
		{"window", "w.json", `{"nms_window_size": 0}`, "nms_window_size"},
		{"count", "c.json", `{"paf_count_threshold": -1}`, "paf_count_threshold"},
		{"min parts", "m.json", `{"min_body_part_count": -2}`, "min_body_part_count"},
		{"box", "b.json", `{"matching_bounding_box_size": 0}`, "matching_bounding_box_size"},
		{"debug path", "d.json", `{"debug_visualisation_enabled": true}`, "debug_visualisation_output_path"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadTuningConfig(writeConfig(t, tc.file, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "failed to stat")
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"debug_visualisation_output_path":"` + strings.Repeat("x", 1<<20) + `"}`
		_, err := LoadTuningConfig(writeConfig(t, "big.json", big))
		assert.ErrorContains(t, err, "too large")
	})
}

func TestParseTuningConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ParseTuningConfig([]byte(`{"nms_threshold": 0.3}`))
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.GetNMSThreshold())

	_, err = ParseTuningConfig([]byte(`[]`))
	assert.Error(t, err)
}
