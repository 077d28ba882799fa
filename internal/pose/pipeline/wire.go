package pipeline

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/banshee-data/pose.report/internal/pose/l2parts"
	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WirePart is a limb endpoint in image pixels.
type WirePart struct {
	Type l2parts.PartType `json:"type"`
	X    int              `json:"x"`
	Y    int              `json:"y"`
}

// WireLimb is one limb of a body.
type WireLimb struct {
	Score float32  `json:"score"`
	From  WirePart `json:"from"`
	To    WirePart `json:"to"`
}

// WireBody is the serialised form of a body: its limbs only. Body ids,
// part instances and confidences are not part of the format.
type WireBody struct {
	Limbs []WireLimb `json:"limbs"`
}

func wirePart(p *l2parts.Part) WirePart {
	return WirePart{Type: p.Type, X: p.PixelX(), Y: p.PixelY()}
}

// ToWire converts bodies to their serialised form. The result is never nil.
func ToWire(bodies []*l4bodies.Body) []WireBody {
	out := make([]WireBody, 0, len(bodies))
	for _, b := range bodies {
		wb := WireBody{Limbs: make([]WireLimb, 0, len(b.Limbs))}
		for _, l := range b.Limbs {
			wb.Limbs = append(wb.Limbs, WireLimb{
				Score: l.Score,
				From:  wirePart(l.From),
				To:    wirePart(l.To),
			})
		}
		out = append(out, wb)
	}
	return out
}

// MarshalBodies encodes bodies in the wire format.
func MarshalBodies(bodies []*l4bodies.Body) ([]byte, error) {
	return json.Marshal(ToWire(bodies))
}

// EncodeBodies writes bodies in the wire format followed by a newline.
func EncodeBodies(w io.Writer, bodies []*l4bodies.Body) error {
	return json.NewEncoder(w).Encode(ToWire(bodies))
}

// UnmarshalBodies decodes the wire format.
func UnmarshalBodies(b []byte) ([]WireBody, error) {
	var out []WireBody
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
