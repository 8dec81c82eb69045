// Package plugin exposes the modal filter bank to a host audio engine.
package plugin

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-modal/modal"
)

var (
	// ErrUnsupportedParam indicates a parameter index outside the table.
	ErrUnsupportedParam = errors.New("plugin: unsupported parameter index")
	// ErrInvalidValue indicates a NaN or infinite parameter value.
	ErrInvalidValue = errors.New("plugin: invalid parameter value")
)

// Effect is the set of callbacks a host drives.
type Effect interface {
	Create(sampleRate int) error
	Release()
	SetParam(index int, value float32) error
	GetParam(index int) (float32, error)
	// Render processes min(inCh, outCh) interleaved channels, at most
	// modal.MaxChannels; further output channels stay silent.
	Render(in []float32, out []float32, frames int, inCh int, outCh int)
}

// ModalFilter renders the instance selected by ParamInstance.
type ModalFilter struct {
	registry *modal.Registry
	params   paramSet
	log      *zap.Logger
}

var _ Effect = (*ModalFilter)(nil)

// Option configures a ModalFilter.
type Option func(*ModalFilter)

// WithLogger routes control-plane diagnostics to log.
func WithLogger(log *zap.Logger) Option {
	return func(f *ModalFilter) {
		if log != nil {
			f.log = log
		}
	}
}

// NewModalFilter returns an effect that still needs Create.
func NewModalFilter(opts ...Option) *ModalFilter {
	f := &ModalFilter{log: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	f.params.reset()
	return f
}

// Create allocates the instance registry for the host sample rate.
func (f *ModalFilter) Create(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("plugin: invalid sample rate %d", sampleRate)
	}
	f.registry = modal.NewRegistry(sampleRate)
	f.params.reset()
	f.log.Debug("modal filter created", zap.Int("sample_rate", sampleRate))
	return nil
}

// Release drops every loaded model.
func (f *ModalFilter) Release() {
	if f.registry == nil {
		return
	}
	f.registry.Release()
	f.log.Debug("modal filter released")
}

// Registry exposes the instance table, nil before Create.
func (f *ModalFilter) Registry() *modal.Registry {
	return f.registry
}

// SetParam stores a clamped parameter value. Scale parameters are forwarded
// to the currently selected instance. Non-finite values and instance indexes
// outside 0..MaxInstances-1 are rejected and leave the stored value alone.
func (f *ModalFilter) SetParam(index int, value float32) error {
	if index < 0 || index >= NumParams {
		f.log.Debug("rejected parameter", zap.Int("index", index), zap.Float32("value", value))
		return fmt.Errorf("%w: %d", ErrUnsupportedParam, index)
	}
	if v := float64(value); math.IsNaN(v) || math.IsInf(v, 0) {
		f.log.Debug("rejected parameter", zap.String("name", paramDefs[index].Name), zap.Float32("value", value))
		return fmt.Errorf("%w: %s=%v", ErrInvalidValue, paramDefs[index].Name, value)
	}
	if index == ParamInstance && (value < 0 || value >= modal.MaxInstances) {
		f.log.Debug("rejected instance", zap.Float32("value", value))
		return fmt.Errorf("%w: %v (valid 0..%d)", modal.ErrInvalidIndex, value, modal.MaxInstances-1)
	}
	f.params.store(index, paramDefs[index].clamp(value))

	switch index {
	case ParamFreqScale, ParamDecayScale, ParamModeGainScale:
		if f.registry == nil {
			return nil
		}
		return f.registry.SetScales(f.params.instance(), f.params.scales())
	}
	return nil
}

// GetParam returns the stored value of a parameter.
func (f *ModalFilter) GetParam(index int) (float32, error) {
	if index < 0 || index >= NumParams {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedParam, index)
	}
	return f.params.load(index), nil
}

// Render processes one block of the selected instance. Channels past
// modal.MaxChannels render silent.
func (f *ModalFilter) Render(in []float32, out []float32, frames int, inCh int, outCh int) {
	if f.registry == nil {
		if frames > 0 && outCh > 0 {
			clear(out[:min(len(out), frames*outCh)])
		}
		return
	}
	_ = f.registry.Render(f.params.instance(), f.params.load(ParamGain), in, out, frames, inCh, outCh)
}

// SetModelParams loads a model into instance index and returns a status code.
func (f *ModalFilter) SetModelParams(index int, modeCount int, vertexCount int, freqs []float32, decays []float32, gains []float32) int {
	if f.registry == nil {
		return StatusFailed
	}
	err := f.registry.SetModelParams(index, modeCount, vertexCount, freqs, decays, gains)
	if err != nil {
		f.log.Debug("model rejected", zap.Int("instance", index), zap.Int("modes", modeCount), zap.Error(err))
	}
	return Status(err)
}

// SetGains strikes instance index and returns a status code.
func (f *ModalFilter) SetGains(index int, points []int, weights []float32) int {
	if f.registry == nil {
		return StatusFailed
	}
	err := f.registry.SetGains(index, points, weights)
	if err != nil {
		f.log.Debug("impact rejected", zap.Int("instance", index), zap.Int("points", len(points)), zap.Error(err))
	}
	return Status(err)
}
