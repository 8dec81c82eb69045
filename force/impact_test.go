package force

import (
	"math"
	"testing"
)

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestImpactForceSilentWithoutImpacts(t *testing.T) {
	f := NewImpactForce(48000, 1)
	out := []float32{1, 2, 3}
	f.Process(out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence, out[%d]=%f", i, v)
		}
	}
}

func TestImpactBurstDecaysAndRetires(t *testing.T) {
	const sr = 48000
	f := NewImpactForce(sr, 7)
	if !f.AddImpact(1) {
		t.Fatalf("expected impact to be queued")
	}

	block := make([]float32, 480)
	f.Process(block)
	if f.Active() != 1 {
		t.Fatalf("expected one live burst, got %d", f.Active())
	}
	early := rms(block)
	if early == 0 {
		t.Fatalf("expected an audible burst")
	}

	// 0.15 s decay constant reaches -80 dB after ~1.4 s.
	for i := 0; i < 50; i++ {
		f.Process(block)
	}
	late := rms(block)
	if late >= early*0.1 {
		t.Fatalf("expected burst to decay: early=%e late=%e", early, late)
	}

	for i := 0; i < 200 && f.Active() > 0; i++ {
		f.Process(block)
	}
	if f.Active() != 0 {
		t.Fatalf("expected burst to retire below threshold")
	}
}

func TestImpactQueueDropsWhenFull(t *testing.T) {
	f := NewImpactForce(48000, 3)
	accepted := 0
	for i := 0; i < maxImpacts+10; i++ {
		if f.AddImpact(1) {
			accepted++
		}
	}
	if accepted != maxImpacts {
		t.Fatalf("expected %d queued impacts, got %d", maxImpacts, accepted)
	}
	f.Process(make([]float32, 16))
	if f.Active() != maxImpacts {
		t.Fatalf("expected %d live bursts, got %d", maxImpacts, f.Active())
	}
}

func TestImpactForceIsDeterministicPerSeed(t *testing.T) {
	a := NewImpactForce(48000, 11)
	b := NewImpactForce(48000, 11)
	a.AddImpact(0.5)
	b.AddImpact(0.5)
	x := make([]float32, 256)
	y := make([]float32, 256)
	a.Process(x)
	b.Process(y)
	for i := range x {
		if x[i] != y[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, x[i], y[i])
		}
	}
}
