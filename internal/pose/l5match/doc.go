// Package l5match owns Layer 5 (Match) of the pose data model.
//
// Responsibilities: turning an assembled body into a scale- and
// translation-normalised match vector, the confidence-weighted distance
// between two vectors, and optimal assignment of bodies across frames.
// Key types: Matcher, Vector, Box.
//
// Dependency rule: L5 may depend on L1-L4.
package l5match
