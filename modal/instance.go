package modal

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// ditherAmplitude bounds the per-channel offset added to the input to keep
// the recursion out of denormal range.
const ditherAmplitude = 1.0e-9

// Scales are the uniform multipliers applied to every mode of a model.
type Scales struct {
	Freq  float32
	Decay float32
	Gain  float32
}

// DefaultScales leaves the model untouched.
func DefaultScales() Scales {
	return Scales{Freq: 1.0, Decay: 1.0, Gain: 1.0}
}

// Instance is one excitable object: a model plus its resonator bank.
//
// Control methods (SetModel, SetScales, Excite) lock the instance. Render only
// ever tries the lock and renders silence for the block when it is held, so the
// audio thread never waits on the control thread.
type Instance struct {
	mu sync.Mutex

	sampleRate float32
	ready      bool
	model      *Model
	scales     Scales
	resonators [MaxResonators]Resonator
	dither     *rand.Rand
}

func (inst *Instance) init(sampleRate float32, seed uint64) {
	inst.sampleRate = sampleRate
	inst.scales = DefaultScales()
	inst.dither = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SetModel publishes m as the instance model and re-initializes every active
// resonator against it. The instance takes ownership of m; callers must not
// modify it afterwards.
func (inst *Instance) SetModel(m *Model) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrShapeMismatch)
	}
	if m.ModeCount > MaxResonators {
		return fmt.Errorf("%w: %d modes (max %d)", ErrCapacityExceeded, m.ModeCount, MaxResonators)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	m.FreqScale = inst.scales.Freq
	m.DecayScale = inst.scales.Decay
	m.GainScale = inst.scales.Gain
	inst.model = m
	for i := 0; i < m.ModeCount; i++ {
		inst.resonators[i].setup(m, i, inst.sampleRate)
	}
	inst.ready = true
	return nil
}

// Load builds a model from caller-owned arrays and publishes it. The arrays
// are copied before the instance is locked.
func (inst *Instance) Load(modeCount int, vertexCount int, freqs []float32, decays []float32, gains []float32) error {
	m, err := NewModel(modeCount, vertexCount, freqs, decays, gains)
	if err != nil {
		return err
	}
	return inst.SetModel(m)
}

// SetScales applies new model-wide scales. Frequency or decay changes
// recompute every active resonator; a gain scale change only affects the
// next excitation.
func (inst *Instance) SetScales(s Scales) {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	recompute := s.Freq != inst.scales.Freq || s.Decay != inst.scales.Decay
	inst.scales = s
	if inst.model == nil {
		return
	}
	inst.model.FreqScale = s.Freq
	inst.model.DecayScale = s.Decay
	inst.model.GainScale = s.Gain
	if !recompute {
		return
	}
	for i := 0; i < inst.model.ModeCount; i++ {
		inst.resonators[i].computeCoefs(inst.model, inst.sampleRate)
	}
}

// Scales returns the scales currently applied to the instance.
func (inst *Instance) Scales() Scales {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.scales
}

// Excite sets every resonator's excitation from a fresh strike, replacing
// whatever the previous strike left.
func (inst *Instance) Excite(impacts []Impact) error {
	if len(impacts) == 0 {
		return fmt.Errorf("%w: no impacts", ErrShapeMismatch)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if !inst.ready || inst.model == nil {
		return ErrNotReady
	}
	for i := 0; i < inst.model.ModeCount; i++ {
		inst.resonators[i].setGain(inst.model, impacts)
	}
	return nil
}

// SetGains is Excite over flat triangle-vertex and weight arrays.
func (inst *Instance) SetGains(points []int, weights []float32) error {
	if !inst.Ready() {
		return ErrNotReady
	}
	impacts, err := Impacts(points, weights)
	if err != nil {
		return err
	}
	return inst.Excite(impacts)
}

// Ready reports whether a model has been loaded.
func (inst *Instance) Ready() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.ready
}

// ModeCount returns the number of active resonators.
func (inst *Instance) ModeCount() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.model == nil {
		return 0
	}
	return inst.model.ModeCount
}

// Resonator returns a copy of the resonator in slot i.
func (inst *Instance) Resonator(i int) (Resonator, bool) {
	if i < 0 || i >= MaxResonators {
		return Resonator{}, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.resonators[i], true
}

// Release drops the model and returns the instance to its unready state.
func (inst *Instance) Release() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.model = nil
	inst.ready = false
	inst.resonators = [MaxResonators]Resonator{}
}

// Render processes one interleaved block. out is cleared first; the block stays
// silent when no model is loaded or a control operation holds the instance.
// Channels beyond min(inCh, outCh, MaxChannels) are left silent.
func (inst *Instance) Render(gainDB float32, in []float32, out []float32, frames int, inCh int, outCh int) {
	if frames <= 0 || outCh <= 0 {
		return
	}
	clear(out[:min(len(out), frames*outCh)])
	if inCh <= 0 {
		return
	}
	if !inst.mu.TryLock() {
		return
	}
	defer inst.mu.Unlock()

	if !inst.ready || inst.model == nil || inst.model.ModeCount == 0 {
		return
	}
	frames = min(frames, len(in)/inCh, len(out)/outCh)
	if frames <= 0 {
		return
	}

	numResonators := inst.model.ModeCount
	gain := dbToLinear(gainDB) / float32(numResonators)
	channels := min(inCh, outCh, MaxChannels)

	for c := 0; c < channels; c++ {
		dither := (2.0*inst.dither.Float32() - 1.0) * ditherAmplitude
		for k := 0; k < numResonators; k++ {
			inst.resonators[k].processBlock(c, in[c:], inCh, out[c:], outCh, frames, dither, gain)
		}
	}
}
