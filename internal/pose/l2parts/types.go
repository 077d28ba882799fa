package l2parts

import (
	"fmt"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
)

// PartType identifies one of the 18 COCO joint kinds. The value is also the
// heatmap channel of that part in the network output.
type PartType int

const (
	Nose PartType = iota
	Neck
	RShoulder
	RElbow
	RWrist
	LShoulder
	LElbow
	LWrist
	RHip
	RKnee
	RAnkle
	LHip
	LKnee
	LAnkle
	REye
	LEye
	REar
	LEar
)

// PartTypeCount is the number of part types.
const PartTypeCount = 18

var partTypeNames = [PartTypeCount]string{
	"nose", "neck", "rShoulder", "rElbow", "rWrist",
	"lShoulder", "lElbow", "lWrist", "rHip",
	"rKnee", "rAnkle", "lHip", "lKnee", "lAnkle",
	"rEye", "lEye", "rEar", "lEar",
}

// PartTypes lists every part type in channel order.
func PartTypes() []PartType {
	types := make([]PartType, PartTypeCount)
	for i := range types {
		types[i] = PartType(i)
	}
	return types
}

// Valid reports whether p names a known part type.
func (p PartType) Valid() bool {
	return p >= 0 && p < PartTypeCount
}

// Channel returns the heatmap channel of p.
func (p PartType) Channel() int {
	return int(p)
}

func (p PartType) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PartType(%d)", int(p))
	}
	return partTypeNames[p]
}

// PartTypeByName resolves the wire label of a part type.
func PartTypeByName(name string) (PartType, error) {
	for i, n := range partTypeNames {
		if n == name {
			return PartType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown part type %q", name)
}

// MarshalText encodes the part type as its name.
func (p PartType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid part type %d", int(p))
	}
	return []byte(partTypeNames[p]), nil
}

// UnmarshalText decodes a part type name.
func (p *PartType) UnmarshalText(b []byte) error {
	pt, err := PartTypeByName(string(b))
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// PartKey is the identity of a part: its type and its instance number
// within that type.
type PartKey struct {
	Type     PartType
	Instance int
}

// Part is one detected joint in grid coordinates.
type Part struct {
	Type       PartType
	Instance   int
	Y          int // grid row
	X          int // grid column
	Confidence float32
}

// Key returns the identity of the part.
func (p *Part) Key() PartKey {
	return PartKey{Type: p.Type, Instance: p.Instance}
}

// PixelX is the part column in input image pixels.
func (p *Part) PixelX() int {
	return p.X * l1tensor.GridScale
}

// PixelY is the part row in input image pixels.
func (p *Part) PixelY() int {
	return p.Y * l1tensor.GridScale
}

func (p *Part) String() string {
	return fmt.Sprintf("%s:%d@(%d,%d) conf=%.3f", p.Type, p.Instance, p.X, p.Y, p.Confidence)
}

// PartsByType holds the candidates of every part type, indexed by PartType.
type PartsByType [PartTypeCount][]*Part

// Count returns the total number of parts.
func (pp *PartsByType) Count() int {
	n := 0
	for _, parts := range pp {
		n += len(parts)
	}
	return n
}
