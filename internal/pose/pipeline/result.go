package pipeline

import (
	"time"

	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l3limbs"
	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
)

// Result is everything the decoder produced for one tensor. Parts and Limbs
// keep the intermediate stages for debugging; Bodies is the output.
type Result struct {
	Height, Width int

	Parts l2parts.PartsByType
	// Candidates is the number of limb candidates that passed scoring, per
	// limb type, before greedy selection.
	Candidates [l3limbs.LimbTypeCount]int
	Limbs      l3limbs.LimbsByType
	Bodies     []*l4bodies.Body

	Stats Stats
}

// Stats summarises a decode.
type Stats struct {
	Parts      int           `json:"parts"`
	Candidates int           `json:"candidates"`
	Limbs      int           `json:"limbs"`
	Bodies     int           `json:"bodies"`
	Detect     time.Duration `json:"detect_ns"`
	Connect    time.Duration `json:"connect_ns"`
	Assemble   time.Duration `json:"assemble_ns"`
}

// Total is the summed stage time.
func (s Stats) Total() time.Duration {
	return s.Detect + s.Connect + s.Assemble
}
