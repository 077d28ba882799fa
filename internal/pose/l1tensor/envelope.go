package l1tensor

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FloatType is the only envelope element type the decoder accepts.
const FloatType = "FLOAT"

// Envelope is the JSON transport form of a tensor: the element type, the
// shape and the raw little-endian bytes in base64.
type Envelope struct {
	Type  string  `json:"type"`
	Shape []int64 `json:"shape"`
	Value string  `json:"value"`
}

// UnmarshalEnvelope parses an envelope and converts it to a Tensor. Both the
// rank-4 [1][H][W][57] form and the batch-stripped rank-3 form are accepted.
func UnmarshalEnvelope(b []byte) (*Tensor, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("parse tensor envelope: %w", err)
	}
	return env.Tensor()
}

// DecodeEnvelope reads one envelope from r.
func DecodeEnvelope(r io.Reader) (*Tensor, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("parse tensor envelope: %w", err)
	}
	return env.Tensor()
}

// Tensor converts the envelope payload.
func (e *Envelope) Tensor() (*Tensor, error) {
	if e.Type != FloatType {
		return nil, fmt.Errorf("unsupported tensor type %q, expected %q", e.Type, FloatType)
	}

	shape := e.Shape
	switch len(shape) {
	case 4:
		if shape[0] != 1 {
			return nil, fmt.Errorf("%w: expected batch size 1, got shape %v", ErrShape, shape)
		}
		shape = shape[1:]
	case 3:
	default:
		return nil, fmt.Errorf("%w: expected rank 3 or 4 with [height][width][%d], got shape %v", ErrShape, Channels, e.Shape)
	}
	if shape[2] != Channels {
		return nil, fmt.Errorf("%w: expected [height][width][%d], got shape %v", ErrShape, Channels, e.Shape)
	}

	raw, err := base64.StdEncoding.DecodeString(e.Value)
	if err != nil {
		return nil, fmt.Errorf("decode tensor value: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("tensor value length %d is not a multiple of 4", len(raw))
	}
	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return New(int(shape[0]), int(shape[1]), int(shape[2]), data)
}

// NewEnvelope packs t into the rank-4 envelope form.
func NewEnvelope(t *Tensor) Envelope {
	raw := make([]byte, len(t.data)*4)
	for i, v := range t.data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return Envelope{
		Type:  FloatType,
		Shape: []int64{1, int64(t.Height), int64(t.Width), Channels},
		Value: base64.StdEncoding.EncodeToString(raw),
	}
}

// EncodeEnvelope writes t to w as a JSON envelope.
func EncodeEnvelope(w io.Writer, t *Tensor) error {
	return json.NewEncoder(w).Encode(NewEnvelope(t))
}
