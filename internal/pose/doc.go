// Package pose is the root of the pose decoding data model.
//
// Layer packages (decoded bottom-up from one inference tensor):
//
//	l1tensor  - output tensor contract, channel accessors, envelope codec
//	l2parts   - part types and non-maximum suppression over heatmaps
//	l3limbs   - limb types, PAF line-integral scoring, greedy selection
//	l4bodies  - union-find assembly of limbs into bodies
//	l5match   - pose match vectors, weighted distance, cross-frame assignment
//
// Dependency rule: Ln may depend on L1..L(n-1) only. The pipeline package is
// the composition root; storage, debug and monitor are adapters.
package pose
