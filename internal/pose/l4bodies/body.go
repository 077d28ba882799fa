package l4bodies

import (
	"fmt"

	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
)

// Body is one assembled skeleton. Parts is the union of the endpoints of
// Limbs, in first-seen order. A Body returned by the Assembler must not be
// modified.
type Body struct {
	ID    int
	Limbs []*l3limbs.Limb
	Parts []*l2parts.Part

	limbSet map[l3limbs.LimbKey]struct{}
	partSet map[l2parts.PartKey]struct{}
}

// NewBody returns an empty body with the given id.
func NewBody(id int) *Body {
	return &Body{
		ID:      id,
		limbSet: make(map[l3limbs.LimbKey]struct{}),
		partSet: make(map[l2parts.PartKey]struct{}),
	}
}

// AddLimb adds l and both of its endpoints. Duplicates are ignored.
func (b *Body) AddLimb(l *l3limbs.Limb) {
	if _, ok := b.limbSet[l.Key()]; ok {
		return
	}
	b.limbSet[l.Key()] = struct{}{}
	b.Limbs = append(b.Limbs, l)
	b.addPart(l.From)
	b.addPart(l.To)
}

func (b *Body) addPart(p *l2parts.Part) {
	if _, ok := b.partSet[p.Key()]; ok {
		return
	}
	b.partSet[p.Key()] = struct{}{}
	b.Parts = append(b.Parts, p)
}

// absorb moves every limb of other into b and empties other.
func (b *Body) absorb(other *Body) {
	for _, l := range other.Limbs {
		b.AddLimb(l)
	}
	other.Limbs = nil
	other.Parts = nil
	other.limbSet = nil
	other.partSet = nil
}

// HasPart reports whether the body contains the part with key k.
func (b *Body) HasPart(k l2parts.PartKey) bool {
	_, ok := b.partSet[k]
	return ok
}

// PartCount returns the number of distinct parts.
func (b *Body) PartCount() int {
	return len(b.Parts)
}

// ConfidenceSum adds up the confidence of every part.
func (b *Body) ConfidenceSum() float64 {
	var sum float64
	for _, p := range b.Parts {
		sum += float64(p.Confidence)
	}
	return sum
}

func (b *Body) String() string {
	return fmt.Sprintf("Body{id=%d limbs=%d parts=%d}", b.ID, len(b.Limbs), len(b.Parts))
}
