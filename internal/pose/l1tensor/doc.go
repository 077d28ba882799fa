// Package l1tensor owns Layer 1 (Tensor) of the pose data model.
//
// Responsibilities: the [height][width][57] output tensor contract of the
// pose network, channel accessors for part heatmaps and PAF vectors, and the
// JSON tensor envelope used to move tensors between processes.
// Key types: Tensor, Envelope.
//
// Dependency rule: L1 depends on nothing else in internal/pose.
package l1tensor
