package modal

import "fmt"

// Registry is a fixed table of instance slots addressed by index.
type Registry struct {
	sampleRate int
	instances  [MaxInstances]Instance
}

// NewRegistry allocates every instance slot for the given host sample rate.
func NewRegistry(sampleRate int) *Registry {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	r := &Registry{sampleRate: sampleRate}
	for i := range r.instances {
		r.instances[i].init(float32(sampleRate), uint64(i)+1)
	}
	return r
}

// SampleRate returns the rate every instance renders at.
func (r *Registry) SampleRate() int {
	return r.sampleRate
}

// Instance returns the slot at index.
func (r *Registry) Instance(index int) (*Instance, error) {
	if index < 0 || index >= MaxInstances {
		return nil, fmt.Errorf("%w: %d (valid 0..%d)", ErrInvalidIndex, index, MaxInstances-1)
	}
	return &r.instances[index], nil
}

// SetModelParams loads or replaces the model of instance index.
func (r *Registry) SetModelParams(index int, modeCount int, vertexCount int, freqs []float32, decays []float32, gains []float32) error {
	inst, err := r.Instance(index)
	if err != nil {
		return err
	}
	return inst.Load(modeCount, vertexCount, freqs, decays, gains)
}

// SetGains applies an impact excitation to instance index.
func (r *Registry) SetGains(index int, points []int, weights []float32) error {
	inst, err := r.Instance(index)
	if err != nil {
		return err
	}
	return inst.SetGains(points, weights)
}

// SetScales updates the model-wide scales of instance index.
func (r *Registry) SetScales(index int, s Scales) error {
	inst, err := r.Instance(index)
	if err != nil {
		return err
	}
	inst.SetScales(s)
	return nil
}

// Render processes one block for instance index. An invalid index clears out
// and reports ErrInvalidIndex; every valid index renders, silent if unready.
func (r *Registry) Render(index int, gainDB float32, in []float32, out []float32, frames int, inCh int, outCh int) error {
	inst, err := r.Instance(index)
	if err != nil {
		if frames > 0 && outCh > 0 {
			clear(out[:min(len(out), frames*outCh)])
		}
		return err
	}
	inst.Render(gainDB, in, out, frames, inCh, outCh)
	return nil
}

// Release drops the model of every instance.
func (r *Registry) Release() {
	for i := range r.instances {
		r.instances[i].Release()
	}
}
