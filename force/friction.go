package force

import (
	"math"
)

const (
	maxPendingFriction = 5

	frictionMinPct    = 0.05
	frictionMaxPct    = 10.0
	frictionDecayTime = 0.997
	frictionGlideEps  = 5e-3
	frictionThreshDB  = -80.0
)

// FrictionForce loops a recorded rubbing sound as a sustained excitation.
// Pitch follows SetFrequencyPct with a per-block glide; the level is set in dB
// and then decays slowly while the pitch holds still.
//
// SetFrequencyPct and SetLevel may be called from any goroutine. Each keeps at
// most five pending values and Process applies at most one of each per block.
// Process belongs to the audio thread and never allocates.
type FrictionForce struct {
	freqQueue  chan float32
	levelQueue chan float32

	// table is the loop followed by a copy of its first sample.
	table []float32
	size  int

	sampleRate float64
	baseFreq   float64
	freq       float64
	target     float64
	phase      float64
	delta      float64

	level     float32
	decay     float32
	threshold float32
}

// NewFrictionForce builds a generator around loop, which is copied. With an
// empty loop every method is a no-op and Process renders silence.
func NewFrictionForce(loop []float32, sampleRate int) *FrictionForce {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	f := &FrictionForce{
		freqQueue:  make(chan float32, maxPendingFriction),
		levelQueue: make(chan float32, maxPendingFriction),
		sampleRate: float64(sampleRate),
		decay:      float32(math.Exp(-1.0 / float64(sampleRate) / frictionDecayTime)),
		threshold:  float32(math.Pow(10, frictionThreshDB*0.05)),
	}
	if len(loop) == 0 {
		return f
	}
	f.size = len(loop)
	f.table = make([]float32, f.size+1)
	copy(f.table, loop)
	f.table[f.size] = loop[0]

	f.baseFreq = f.sampleRate / float64(f.size)
	f.freq = f.baseFreq
	f.target = f.baseFreq
	f.updateDelta()
	return f
}

// BaseFrequency is the loop repetition rate at 100 percent.
func (f *FrictionForce) BaseFrequency() float64 {
	return f.baseFreq
}

// Level returns the current linear level.
func (f *FrictionForce) Level() float32 {
	return f.level
}

// SetFrequencyPct queues a playback rate relative to the recorded loop,
// clamped to 0.05..10. It reports false when the value was dropped because
// the queue is full, the value is not finite, or there is no loop.
func (f *FrictionForce) SetFrequencyPct(pct float32) bool {
	return f.enqueue(f.freqQueue, pct)
}

// SetLevel queues a level in dB relative to full scale. Levels above 0 dB are
// clamped. The return value follows SetFrequencyPct.
func (f *FrictionForce) SetLevel(levelDB float32) bool {
	return f.enqueue(f.levelQueue, levelDB)
}

func (f *FrictionForce) enqueue(q chan float32, v float32) bool {
	if f.size == 0 || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return false
	}
	select {
	case q <- v:
		return true
	default:
		return false
	}
}

// Process overwrites out with the next block of the loop.
func (f *FrictionForce) Process(out []float32) {
	clear(out)
	if f.size == 0 {
		return
	}

	select {
	case pct := <-f.freqQueue:
		f.target = float64(min(max(pct, frictionMinPct), frictionMaxPct)) * f.baseFreq
	default:
	}
	select {
	case db := <-f.levelQueue:
		f.level = min(float32(math.Pow(10, float64(db)*0.05)), 1)
	default:
	}

	if f.level < f.threshold || len(out) == 0 {
		return
	}

	if diff := f.target - f.freq; math.Abs(diff) > frictionGlideEps {
		step := diff / float64(len(out))
		for n := range out {
			f.freq += step
			f.updateDelta()
			out[n] = f.next() * f.level
		}
		f.freq = f.target
		f.updateDelta()
		return
	}

	for n := range out {
		out[n] = f.next() * f.level
		f.level *= f.decay
	}
}

func (f *FrictionForce) updateDelta() {
	f.delta = f.freq * float64(f.size) / f.sampleRate
}

// next reads the table with linear interpolation and advances the phase.
func (f *FrictionForce) next() float32 {
	i := int(f.phase)
	frac := float32(f.phase - float64(i))
	a := f.table[i]
	v := a + frac*(f.table[i+1]-a)

	f.phase += f.delta
	for f.phase >= float64(f.size) {
		f.phase -= float64(f.size)
	}
	return v
}
