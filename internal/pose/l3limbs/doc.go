// Package l3limbs owns Layer 3 (Limbs) of the pose data model.
//
// Responsibilities: the fixed table of 19 limb types with their PAF channel
// mapping, scoring of candidate part pairs by a line integral over the part
// affinity field, and greedy conflict-free selection per limb type.
// Key types: LimbType, Limb, ScoreParams.
//
// Dependency rule: L3 may depend on L1-L2, never on L4+.
package l3limbs
