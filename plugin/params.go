package plugin

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-modal/modal"
)

// Parameter indexes exposed to the host.
const (
	ParamInstance = iota
	ParamGain
	ParamFreqScale
	ParamModeGainScale
	ParamDecayScale
	NumParams
)

// ParamDef describes one host-visible parameter.
type ParamDef struct {
	Name        string
	Unit        string
	Min         float32
	Max         float32
	Default     float32
	Description string
}

var paramDefs = [NumParams]ParamDef{
	ParamInstance:      {Name: "Instance", Min: 0, Max: modal.MaxInstances - 1, Default: 0, Description: "Determines the modal model instance from which params are set"},
	ParamGain:          {Name: "Gain", Unit: "dB", Min: -120, Max: 50, Default: 0, Description: "Overall gain"},
	ParamFreqScale:     {Name: "FreqScale", Min: 0.1, Max: 100, Default: 1, Description: "Uniformly scale the center frequencies of all modes"},
	ParamModeGainScale: {Name: "ModeGainScale", Min: 0.1, Max: 100, Default: 1, Description: "Uniformly scale the mode shape (mode gains) of all modes"},
	ParamDecayScale:    {Name: "DecayScale", Min: 0.01, Max: 10, Default: 1, Description: "Uniformly scale the angular decays of all modes"},
}

// Definitions lists the parameters in index order.
func Definitions() []ParamDef {
	out := make([]ParamDef, NumParams)
	copy(out, paramDefs[:])
	return out
}

func (d ParamDef) clamp(v float32) float32 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// paramSet stores parameter values so the audio thread can read them while
// the control thread writes.
type paramSet struct {
	bits [NumParams]atomic.Uint32
}

func (p *paramSet) reset() {
	for i := range paramDefs {
		p.store(i, paramDefs[i].Default)
	}
}

func (p *paramSet) store(index int, v float32) {
	p.bits[index].Store(math.Float32bits(v))
}

func (p *paramSet) load(index int) float32 {
	return math.Float32frombits(p.bits[index].Load())
}

func (p *paramSet) instance() int {
	return int(p.load(ParamInstance))
}

func (p *paramSet) scales() modal.Scales {
	return modal.Scales{
		Freq:  p.load(ParamFreqScale),
		Decay: p.load(ParamDecayScale),
		Gain:  p.load(ParamModeGainScale),
	}
}
