package l2parts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
)

// paintBlob writes a Gaussian bump with the given peak into channel ch.
func paintBlob(tn *l1tensor.Tensor, ch, cy, cx int, peak, sigma float64) {
	for y := 0; y < tn.Height; y++ {
		for x := 0; x < tn.Width; x++ {
			d2 := float64((y-cy)*(y-cy) + (x-cx)*(x-cx))
			v := peak * math.Exp(-d2/(2*sigma*sigma))
			if float64(tn.At(y, x, ch)) < v {
				tn.Set(y, x, ch, float32(v))
			}
		}
	}
}

func TestPartTypeTable(t *testing.T) {
	t.Parallel()

	types := PartTypes()
	require.Len(t, types, PartTypeCount)
	for i, pt := range types {
		assert.Equal(t, i, pt.Channel())
		got, err := PartTypeByName(pt.String())
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
	assert.Equal(t, "neck", Neck.String())
	assert.Equal(t, "rWrist", RWrist.String())
	assert.Equal(t, "lEar", LEar.String())
	assert.Equal(t, "PartType(18)", PartType(18).String())

	_, err := PartTypeByName("tail")
	assert.Error(t, err)
}

func TestPartTypeText(t *testing.T) {
	t.Parallel()

	b, err := LShoulder.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "lShoulder", string(b))

	var pt PartType
	require.NoError(t, pt.UnmarshalText([]byte("rKnee")))
	assert.Equal(t, RKnee, pt)

	_, err = PartType(-1).MarshalText()
	assert.Error(t, err)
}

func TestPartPixelCoordinates(t *testing.T) {
	t.Parallel()

	p := &Part{Type: Neck, Instance: 3, Y: 6, X: 29, Confidence: 0.9}
	assert.Equal(t, 232, p.PixelX())
	assert.Equal(t, 48, p.PixelY())
	assert.Equal(t, PartKey{Type: Neck, Instance: 3}, p.Key())
}

func TestNMSParamsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultNMSParams().Validate())
	assert.Error(t, NMSParams{WindowSize: 0, Threshold: 0.1}.Validate())
	assert.Error(t, NMSParams{WindowSize: 3, Threshold: float32(math.NaN())}.Validate())
}

func TestDetectPartsIsolatedBlobs(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(40, 40)
	ch := RElbow.Channel()
	paintBlob(tn, ch, 8, 9, 0.8, 1.5)
	paintBlob(tn, ch, 25, 30, 0.6, 1.2)
	paintBlob(tn, ch, 30, 10, 0.1, 1.5) // below threshold

	parts := DetectParts(tn, RElbow, DefaultNMSParams())
	require.Len(t, parts, 2)

	assert.Equal(t, 8, parts[0].Y)
	assert.Equal(t, 9, parts[0].X)
	assert.InDelta(t, 0.8, parts[0].Confidence, 1e-6)
	assert.Equal(t, 0, parts[0].Instance)

	assert.Equal(t, 25, parts[1].Y)
	assert.Equal(t, 30, parts[1].X)
	assert.Equal(t, 1, parts[1].Instance)
	assert.Equal(t, RElbow, parts[1].Type)
}

func TestDetectPartsThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(10, 10)
	tn.Set(5, 5, Nose.Channel(), 0.15)

	assert.Empty(t, DetectParts(tn, Nose, NMSParams{WindowSize: 4, Threshold: 0.15}))
	assert.Len(t, DetectParts(tn, Nose, NMSParams{WindowSize: 4, Threshold: 0.149}), 1)
}

func TestDetectPartsSkipsBorder(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(10, 10)
	ch := LAnkle.Channel()
	// Window 4 spans offsets -1..1, so row/col 0 and 9 are never centres.
	tn.Set(0, 5, ch, 0.9)
	tn.Set(9, 5, ch, 0.9)
	tn.Set(5, 0, ch, 0.9)
	tn.Set(5, 9, ch, 0.9)
	tn.Set(1, 1, ch, 0.9)

	parts := DetectParts(tn, LAnkle, DefaultNMSParams())
	require.Len(t, parts, 1)
	assert.Equal(t, 1, parts[0].Y)
	assert.Equal(t, 1, parts[0].X)
}

func TestDetectPartsAdjacentTiesBothEmitted(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(10, 10)
	ch := Neck.Channel()
	tn.Set(4, 4, ch, 0.7)
	tn.Set(4, 5, ch, 0.7)

	parts := DetectParts(tn, Neck, DefaultNMSParams())
	require.Len(t, parts, 2)
	assert.Equal(t, 4, parts[0].X)
	assert.Equal(t, 5, parts[1].X)
}

func TestDetectPartsDominatedNeighbourSuppressed(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(10, 10)
	ch := Neck.Channel()
	tn.Set(4, 4, ch, 0.7)
	tn.Set(4, 5, ch, 0.6)
	tn.Set(4, 7, ch, 0.5) // outside the window of (4,4)

	parts := DetectParts(tn, Neck, DefaultNMSParams())
	require.Len(t, parts, 2)
	assert.Equal(t, 4, parts[0].X)
	assert.Equal(t, 7, parts[1].X)
}

func TestDetectPartsWindowOne(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(5, 5)
	ch := Nose.Channel()
	tn.Set(0, 0, ch, 0.5)
	tn.Set(0, 1, ch, 0.6)

	// A window of 1 compares each cell only to itself.
	parts := DetectParts(tn, Nose, NMSParams{WindowSize: 1, Threshold: 0.1})
	assert.Len(t, parts, 2)
}

func TestDetectPartsEmpty(t *testing.T) {
	t.Parallel()

	parts := DetectParts(l1tensor.Zeros(20, 20), LEye, DefaultNMSParams())
	assert.Empty(t, parts)

	var all PartsByType
	all[LEye] = parts
	assert.Equal(t, 0, all.Count())
}

func TestDetectAllIndexesByType(t *testing.T) {
	t.Parallel()

	tn := l1tensor.Zeros(12, 12)
	tn.Set(3, 3, Neck.Channel(), 0.9)
	tn.Set(3, 8, Neck.Channel(), 0.8)
	tn.Set(6, 5, LAnkle.Channel(), 0.4)

	all := DetectAll(tn, DefaultNMSParams())
	assert.Equal(t, 3, all.Count())
	require.Len(t, all[Neck], 2)
	require.Len(t, all[LAnkle], 1)
	assert.Equal(t, 1, all[Neck][1].Instance)
	assert.Equal(t, LAnkle, all[LAnkle][0].Type)
	assert.Empty(t, all[Nose])
}
