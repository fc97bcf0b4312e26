package sensors

import (
	"math"
	"math/rand"
)

// Encoder reads back the position and velocity of one generalized
// coordinate, matching a motor-mapped joint in a PlanarChain. Position is
// quantized to a tick resolution the way a real incremental/absolute
// encoder would be; velocity, usually derived by differentiating successive
// ticks, carries additive Gaussian noise instead.
type Encoder struct {
	name  string
	index int

	resolution float64 // position quantization step; 0 disables quantization
	noiseStd   float64 // velocity noise standard deviation
	rng        *rand.Rand

	position, velocity float64
}

// NewEncoder builds an encoder on generalized coordinate index, seeded from
// seed so repeated runs with the same seed reproduce the same noise.
func NewEncoder(name string, index int, resolution, noiseStd float64, seed int64) *Encoder {
	return &Encoder{
		name:       name,
		index:      index,
		resolution: resolution,
		noiseStd:   noiseStd,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (e *Encoder) Type() string { return "encoder" }
func (e *Encoder) Name() string { return e.name }

func (e *Encoder) Update(t float64, q, v, a, u []float64) {
	if e.index < len(q) {
		pos := q[e.index]
		if e.resolution > 0 {
			pos = math.Round(pos/e.resolution) * e.resolution
		}
		e.position = pos
	}
	if e.index < len(v) {
		e.velocity = v[e.index] + e.rng.NormFloat64()*e.noiseStd
	}
}

func (e *Encoder) Reading() []float64 { return []float64{e.position, e.velocity} }

func (e *Encoder) FieldNames() []string { return []string{"position", "velocity"} }
