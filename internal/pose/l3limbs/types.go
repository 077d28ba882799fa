package l3limbs

import (
	"fmt"

	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
)

// LimbType identifies one of the 19 anatomical connections.
type LimbType int

// LimbTypeCount is the number of limb types.
const LimbTypeCount = 19

type limbSpec struct {
	from, to l2parts.PartType
	// paf holds the x/y field channels relative to l1tensor.PAFOffset. The
	// ordering follows the network's training layout and is not sequential.
	paf [2]int
}

var limbTable = [LimbTypeCount]limbSpec{
	{l2parts.Neck, l2parts.RShoulder, [2]int{12, 13}},
	{l2parts.Neck, l2parts.LShoulder, [2]int{20, 21}},
	{l2parts.RShoulder, l2parts.RElbow, [2]int{14, 15}},
	{l2parts.RElbow, l2parts.RWrist, [2]int{16, 17}},
	{l2parts.LShoulder, l2parts.LElbow, [2]int{22, 23}},
	{l2parts.LElbow, l2parts.LWrist, [2]int{24, 25}},
	{l2parts.Neck, l2parts.RHip, [2]int{0, 1}},
	{l2parts.RHip, l2parts.RKnee, [2]int{2, 3}},
	{l2parts.RKnee, l2parts.RAnkle, [2]int{4, 5}},
	{l2parts.Neck, l2parts.LHip, [2]int{6, 7}},
	{l2parts.LHip, l2parts.LKnee, [2]int{8, 9}},
	{l2parts.LKnee, l2parts.LAnkle, [2]int{10, 11}},
	{l2parts.Neck, l2parts.Nose, [2]int{28, 29}},
	{l2parts.Nose, l2parts.REye, [2]int{30, 31}},
	{l2parts.REye, l2parts.REar, [2]int{34, 35}},
	{l2parts.Nose, l2parts.LEye, [2]int{32, 33}},
	{l2parts.LEye, l2parts.LEar, [2]int{36, 37}},
	{l2parts.RShoulder, l2parts.REar, [2]int{18, 19}},
	{l2parts.LShoulder, l2parts.LEar, [2]int{26, 27}},
}

// LimbTypes lists every limb type in id order.
func LimbTypes() []LimbType {
	types := make([]LimbType, LimbTypeCount)
	for i := range types {
		types[i] = LimbType(i)
	}
	return types
}

// Valid reports whether l names a known limb type.
func (l LimbType) Valid() bool {
	return l >= 0 && l < LimbTypeCount
}

// From is the part type at the start of the limb.
func (l LimbType) From() l2parts.PartType {
	return limbTable[l].from
}

// To is the part type at the end of the limb.
func (l LimbType) To() l2parts.PartType {
	return limbTable[l].to
}

// PAFChannels returns the tensor channels of the x (column) and y (row)
// components of the limb's affinity field.
func (l LimbType) PAFChannels() (x, y int) {
	return l1tensor.PAFOffset + limbTable[l].paf[0], l1tensor.PAFOffset + limbTable[l].paf[1]
}

// Auxiliary reports whether the limb is one of the shoulder-to-ear links
// that help assembly but are not part of the drawn skeleton.
func (l LimbType) Auxiliary() bool {
	return l == 17 || l == 18
}

func (l LimbType) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LimbType(%d)", int(l))
	}
	return fmt.Sprintf("limb%d(%s->%s)", int(l), l.From(), l.To())
}

// LimbKey is the identity of a limb.
type LimbKey struct {
	Type LimbType
	From l2parts.PartKey
	To   l2parts.PartKey
}

// Limb is a scored connection between two parts.
type Limb struct {
	Type  LimbType
	Score float32 // PAF line integral
	From  *l2parts.Part
	To    *l2parts.Part
}

// Key returns the identity of the limb.
func (l *Limb) Key() LimbKey {
	return LimbKey{Type: l.Type, From: l.From.Key(), To: l.To.Key()}
}

func (l *Limb) String() string {
	return fmt.Sprintf("%s score=%.3f from=%s to=%s", l.Type, l.Score, l.From, l.To)
}

// LimbsByType holds the limbs of every limb type, indexed by LimbType.
type LimbsByType [LimbTypeCount][]*Limb

// Count returns the total number of limbs.
func (lt *LimbsByType) Count() int {
	n := 0
	for _, limbs := range lt {
		n += len(limbs)
	}
	return n
}

// All flattens the limbs in limb type order.
func (lt *LimbsByType) All() []*Limb {
	all := make([]*Limb, 0, lt.Count())
	for _, limbs := range lt {
		all = append(all, limbs...)
	}
	return all
}
