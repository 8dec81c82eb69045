// Package force generates excitation signals that drive a modal filter bank.
package force

import (
	"math"
	"math/rand/v2"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	maxImpacts = 200

	impactCutoff    = 0.5
	impactBandwidth = 0.9
	impactThreshDB  = -80.0
	impactDecayTime = 0.15

	impactGain = 0.5 * (1.0 - impactBandwidth*impactBandwidth)
)

type impact struct {
	volume float32
	lpf    float32
	bpf    float32
}

// process advances one band-passed noise burst by a sample.
func (imp *impact) process(noise float32, cut float32, decay float32) float32 {
	imp.volume *= decay
	imp.lpf = float32(dspcore.FlushDenormals(float64(imp.lpf + cut*imp.bpf)))
	imp.bpf = float32(dspcore.FlushDenormals(float64(imp.bpf + cut*(noise-imp.lpf-imp.bpf*impactBandwidth))))
	return imp.bpf * imp.volume
}

// ImpactForce turns strike events into decaying noise bursts.
//
// AddImpact may be called from any goroutine; Process belongs to the audio
// thread and never allocates.
type ImpactForce struct {
	queue chan float32

	impacts [maxImpacts]impact
	active  int

	cut       float32
	decay     float32
	threshold float32
	rng       *rand.Rand
}

// NewImpactForce creates a generator for sampleRate. seed fixes the noise sequence.
func NewImpactForce(sampleRate int, seed uint64) *ImpactForce {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	return &ImpactForce{
		queue:     make(chan float32, maxImpacts),
		cut:       float32(2.0 * math.Sin(0.25*math.Pi*impactCutoff)),
		decay:     float32(math.Exp(-1.0 / float64(sampleRate) / impactDecayTime)),
		threshold: float32(math.Pow(10, impactThreshDB*0.05)),
		rng:       rand.New(rand.NewPCG(seed, seed+1)),
	}
}

// AddImpact queues a strike of the given volume. It reports false when the
// queue is full and the strike was dropped.
func (f *ImpactForce) AddImpact(volume float32) bool {
	select {
	case f.queue <- volume * impactGain:
		return true
	default:
		return false
	}
}

// Active returns the number of bursts still sounding.
func (f *ImpactForce) Active() int {
	return f.active
}

// Process overwrites out with the sum of every live burst.
func (f *ImpactForce) Process(out []float32) {
	clear(out)

drain:
	for {
		select {
		case v := <-f.queue:
			if f.active < maxImpacts {
				f.impacts[f.active] = impact{volume: v}
				f.active++
			}
		default:
			break drain
		}
	}

	i := 0
	for i < f.active {
		imp := &f.impacts[i]
		for n := range out {
			out[n] += imp.process(2.0*f.rng.Float32()-1.0, f.cut, f.decay)
		}
		if imp.volume < f.threshold {
			f.active--
			f.impacts[i] = f.impacts[f.active]
			continue
		}
		i++
	}
}
