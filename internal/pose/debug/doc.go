// Package debug renders the intermediate stages of a decode as PNG plots:
// the part heatmaps, the affinity fields, detected parts, accepted limbs and
// assembled bodies. Everything is drawn in grid coordinates with rows
// growing downwards.
package debug
