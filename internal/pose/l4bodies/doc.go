// Package l4bodies owns Layer 4 (Bodies) of the pose data model.
//
// Responsibilities: assembling the selected limbs of all limb types into
// connected skeletons. Ownership of parts is tracked with a disjoint-set
// forest over an arena of body records, so merging two partial bodies is a
// union rather than a rewrite of a shared map.
// Key types: Body, Assembler.
//
// Dependency rule: L4 may depend on L1-L3, never on L5+.
package l4bodies
