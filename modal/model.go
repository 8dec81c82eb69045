package modal

import "fmt"

const (
	// MaxResonators is the number of resonator slots per instance.
	MaxResonators = 256
	// MaxInstances is the number of instance slots in a Registry.
	MaxInstances = 10
	// MaxChannels is the number of independent filter histories kept per resonator.
	MaxChannels = 8
)

// vertexGroupSize is the number of mode-shape rows summed per impact vertex.
const vertexGroupSize = 3

// Model holds the physical parameters of one excitable object.
//
// ModeShapeGains is a flattened vertex x mode matrix indexed as vertex*ModeCount + mode.
type Model struct {
	Frequencies    []float32
	Decays         []float32
	ModeShapeGains []float32

	FreqScale  float32
	DecayScale float32
	GainScale  float32

	ModeCount   int
	VertexCount int
}

// NewModel copies the given arrays into a freshly allocated model with unit scales.
func NewModel(modeCount int, vertexCount int, freqs []float32, decays []float32, gains []float32) (*Model, error) {
	if modeCount > MaxResonators {
		return nil, fmt.Errorf("%w: %d modes (max %d)", ErrCapacityExceeded, modeCount, MaxResonators)
	}
	if modeCount < 0 || vertexCount < 0 {
		return nil, fmt.Errorf("%w: negative counts (modes=%d vertices=%d)", ErrShapeMismatch, modeCount, vertexCount)
	}
	if len(freqs) != modeCount {
		return nil, fmt.Errorf("%w: %d frequencies for %d modes", ErrShapeMismatch, len(freqs), modeCount)
	}
	if len(decays) != modeCount {
		return nil, fmt.Errorf("%w: %d decays for %d modes", ErrShapeMismatch, len(decays), modeCount)
	}
	if len(gains) != modeCount*vertexCount {
		return nil, fmt.Errorf("%w: %d gains for %d modes x %d vertices", ErrShapeMismatch, len(gains), modeCount, vertexCount)
	}

	m := &Model{
		Frequencies:    make([]float32, modeCount),
		Decays:         make([]float32, modeCount),
		ModeShapeGains: make([]float32, modeCount*vertexCount),
		FreqScale:      1.0,
		DecayScale:     1.0,
		GainScale:      1.0,
		ModeCount:      modeCount,
		VertexCount:    vertexCount,
	}
	copy(m.Frequencies, freqs)
	copy(m.Decays, decays)
	copy(m.ModeShapeGains, gains)
	return m, nil
}

// GainAt returns the scaled mode-shape gain of a mode at a matrix row.
// Rows outside the matrix contribute nothing.
func (m *Model) GainAt(vertex int, mode int) float32 {
	if vertex < 0 || vertex >= m.VertexCount || mode < 0 || mode >= m.ModeCount {
		return 0
	}
	return m.ModeShapeGains[vertex*m.ModeCount+mode] * m.GainScale
}

// VertexGroupSum sums the three mode-shape rows belonging to impact vertex v:
// rows 3v, 3v+1 and 3v+2.
func (m *Model) VertexGroupSum(v int, mode int) float32 {
	base := (v+1)*vertexGroupSize - vertexGroupSize
	return m.GainAt(base, mode) + m.GainAt(base+1, mode) + m.GainAt(base+2, mode)
}
