package l4bodies

import (
	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
)

// Assembler grows bodies from limbs. Body records live in an arena indexed
// by id; parent links form a disjoint-set forest whose roots are the live
// bodies. A part's owner is the root reached from the body that first
// claimed it.
//
// An Assembler is not safe for concurrent use.
type Assembler struct {
	bodies []*Body
	parent []int
	owner  map[l2parts.PartKey]int
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{owner: make(map[l2parts.PartKey]int)}
}

func (a *Assembler) newBody() int {
	id := len(a.bodies)
	a.bodies = append(a.bodies, NewBody(id))
	a.parent = append(a.parent, id)
	return id
}

// find returns the root of id, compressing the path on the way.
func (a *Assembler) find(id int) int {
	root := id
	for a.parent[root] != root {
		root = a.parent[root]
	}
	for a.parent[id] != root {
		next := a.parent[id]
		a.parent[id] = root
		id = next
	}
	return root
}

func (a *Assembler) ownerOf(k l2parts.PartKey) (int, bool) {
	id, ok := a.owner[k]
	if !ok {
		return 0, false
	}
	return a.find(id), true
}

// union merges the smaller of two roots into the larger (by part count,
// ties keep x) and returns the surviving root.
func (a *Assembler) union(x, y int) int {
	if a.bodies[y].PartCount() > a.bodies[x].PartCount() {
		x, y = y, x
	}
	a.bodies[x].absorb(a.bodies[y])
	a.parent[y] = x
	return x
}

// Add places l into a body:
//   - neither endpoint owned: a new body is created;
//   - both owned by the same body: l joins it;
//   - owned by different bodies: the bodies merge, then l joins;
//   - one endpoint owned: l and the new endpoint join that body.
func (a *Assembler) Add(l *l3limbs.Limb) {
	fk, tk := l.From.Key(), l.To.Key()
	fromID, fromOwned := a.ownerOf(fk)
	toID, toOwned := a.ownerOf(tk)

	var id int
	switch {
	case !fromOwned && !toOwned:
		id = a.newBody()
	case fromOwned && toOwned:
		id = fromID
		if fromID != toID {
			id = a.union(fromID, toID)
		}
	case fromOwned:
		id = fromID
	default:
		id = toID
	}

	a.bodies[id].AddLimb(l)
	if !fromOwned {
		a.owner[fk] = id
	}
	if !toOwned {
		a.owner[tk] = id
	}
}

// Bodies returns the live bodies with more than minPartCount parts, ordered
// by id.
func (a *Assembler) Bodies(minPartCount int) []*Body {
	bodies := make([]*Body, 0)
	for id, b := range a.bodies {
		if a.parent[id] != id {
			continue
		}
		if b.PartCount() > minPartCount {
			bodies = append(bodies, b)
		}
	}
	return bodies
}

// Assemble runs the assembler over every limb, in limb type order and
// within a type in selection order.
func Assemble(limbs *l3limbs.LimbsByType, minPartCount int) []*Body {
	a := NewAssembler()
	for _, l := range limbs.All() {
		a.Add(l)
	}
	return a.Bodies(minPartCount)
}
