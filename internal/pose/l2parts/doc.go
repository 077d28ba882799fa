// Package l2parts owns Layer 2 (Parts) of the pose data model.
//
// Responsibilities: the fixed table of 18 COCO part types and detection of
// part candidates from the heatmap channels by non-maximum suppression.
// Key types: PartType, Part, NMSParams.
//
// Dependency rule: L2 may depend on L1, never on L3+.
package l2parts
