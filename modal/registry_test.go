package modal

import (
	"errors"
	"math"
	"testing"
)

func TestEveryEntryPointRejectsInvalidIndex(t *testing.T) {
	reg := NewRegistry(testSampleRate)
	in := make([]float32, 16)
	for _, idx := range []int{-1, MaxInstances, 100} {
		if _, err := reg.Instance(idx); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("Instance(%d): expected ErrInvalidIndex, got %v", idx, err)
		}
		err := reg.SetModelParams(idx, 1, 3, []float32{440}, []float32{-1}, []float32{1, 0, 0})
		if !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("SetModelParams(%d): expected ErrInvalidIndex, got %v", idx, err)
		}
		if err := reg.SetGains(idx, []int{0, 0, 0}, []float32{1, 0, 0}); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("SetGains(%d): expected ErrInvalidIndex, got %v", idx, err)
		}
		if err := reg.SetScales(idx, DefaultScales()); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("SetScales(%d): expected ErrInvalidIndex, got %v", idx, err)
		}
		out := make([]float32, 16)
		for i := range out {
			out[i] = 3
		}
		if err := reg.Render(idx, 0, in, out, 16, 1, 1); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("Render(%d): expected ErrInvalidIndex, got %v", idx, err)
		}
		for i, v := range out {
			if v != 0 {
				t.Fatalf("Render(%d) left out[%d]=%f", idx, i, v)
			}
		}
	}
	for i := 0; i < MaxInstances; i++ {
		inst, _ := reg.Instance(i)
		if inst.Ready() {
			t.Fatalf("instance %d became ready after rejected calls", i)
		}
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	reg := NewRegistry(testSampleRate)
	a := loadSingleMode(t, reg, 0, 440, -10)
	b := loadSingleMode(t, reg, 9, 880, -10)
	if err := reg.SetScales(0, Scales{Freq: 3, Decay: 1, Gain: 1}); err != nil {
		t.Fatalf("SetScales: %v", err)
	}
	if b.Scales() != DefaultScales() {
		t.Fatalf("scale change leaked into instance 9: %+v", b.Scales())
	}
	ra, _ := a.Resonator(0)
	rb, _ := b.Resonator(0)
	if ra.twoRCosTheta == rb.twoRCosTheta {
		t.Fatalf("expected distinct tunings")
	}
}

func TestReleaseDropsEveryModel(t *testing.T) {
	reg := NewRegistry(testSampleRate)
	loadSingleMode(t, reg, 0, 440, -10)
	loadSingleMode(t, reg, 5, 440, -10)
	reg.Release()
	for i := 0; i < MaxInstances; i++ {
		inst, _ := reg.Instance(i)
		if inst.Ready() || inst.ModeCount() != 0 {
			t.Fatalf("instance %d still holds a model after Release", i)
		}
	}
	if err := reg.SetGains(0, []int{0, 0, 0}, []float32{1, 0, 0}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after Release, got %v", err)
	}
}

// A single 440 Hz mode with R = 0.999, struck at full weight and fed a unit
// impulse, renders R^(n+1)·sin((n+1)θ)/sinθ scaled by the output gain.
func TestRenderSingleModeImpulseEndToEnd(t *testing.T) {
	const frames = testSampleRate + 1
	reg := NewRegistry(testSampleRate)
	decay := decayForRadius(0.999, testSampleRate)
	if err := reg.SetModelParams(0, 1, 3, []float32{440}, []float32{decay}, []float32{1, 0, 0}); err != nil {
		t.Fatalf("SetModelParams: %v", err)
	}
	if err := reg.SetGains(0, []int{0, 0, 0}, []float32{1, 0, 0}); err != nil {
		t.Fatalf("SetGains: %v", err)
	}
	inst, _ := reg.Instance(0)
	res, _ := inst.Resonator(0)
	_, rSin, r2 := res.Coefficients()
	if res.Amplitude() != rSin {
		t.Fatalf("expected full-weight unit gain strike to set amplitude RSinTheta: got=%e want=%e", res.Amplitude(), rSin)
	}

	in := make([]float32, frames)
	in[0] = 1
	out := make([]float32, frames)
	if err := reg.Render(0, 0, in, out, frames, 1, 1); err != nil {
		t.Fatalf("Render: %v", err)
	}

	gain := float64(dbToLinear(0))
	if want := gain * float64(rSin); math.Abs(float64(out[0])-want) > 1e-6*want {
		t.Fatalf("first sample should be proportional to RSinTheta: got=%e want=%e", out[0], want)
	}

	R := math.Sqrt(float64(r2))
	for _, start := range []int{0, 4800, 9600} {
		peak := 0.0
		for n := start; n < start+200; n++ {
			v := math.Abs(float64(out[n])) / (gain * math.Pow(R, float64(n+1)))
			peak = math.Max(peak, v)
		}
		if peak < 0.98 || peak > 1.01 {
			t.Fatalf("envelope near sample %d deviates from R^n: normalized peak=%f", start, peak)
		}
	}

	tailBound := gain * math.Pow(R, frames-200)
	for n := frames - 200; n < frames; n++ {
		if math.Abs(float64(out[n])) > math.Max(tailBound, 1e-6) {
			t.Fatalf("expected the tone to have decayed by R^%d at sample %d, got %e", n, n, out[n])
		}
	}
}
