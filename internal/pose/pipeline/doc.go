// Package pipeline is the composition root of the pose decoder.
//
// It runs the layer stages in order over one network output tensor:
// part detection (L2) fanned out per part type, limb scoring and selection
// (L3) fanned out per limb type, then body assembly (L4). It owns no
// domain logic of its own and delegates every decision to the layer
// packages. Adapters (debug plots, persistence, HTTP) observe the Result.
package pipeline
