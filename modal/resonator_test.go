package modal

import (
	"math"
	"testing"
)

const testSampleRate = 48000

func singleModeModel(t *testing.T, freq float32, decay float32) *Model {
	t.Helper()
	m, err := NewModel(1, 3, []float32{freq}, []float32{decay}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func decayForRadius(radius float64, sampleRate float64) float32 {
	return float32(sampleRate * math.Log(radius))
}

func windowPeaks(samples []float32, window int) []float64 {
	peaks := make([]float64, 0, len(samples)/window)
	for start := 0; start+window <= len(samples); start += window {
		peak := 0.0
		for _, s := range samples[start : start+window] {
			if v := math.Abs(float64(s)); v > peak {
				peak = v
			}
		}
		peaks = append(peaks, peak)
	}
	return peaks
}

func impulseResponse(r *Resonator, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		x := float32(0)
		if i == 0 {
			x = 1
		}
		out[i] = r.Process(x)
	}
	return out
}

func TestComputeFilterCoefsMatchesPolePlacement(t *testing.T) {
	decay := decayForRadius(0.999, testSampleRate)
	m := singleModeModel(t, 440, decay)
	var r Resonator
	r.setup(m, 0, testSampleRate)

	theta := 2.0 * math.Pi * 440.0 / testSampleRate
	R := math.Exp(float64(decay) / testSampleRate)
	twoRCos, rSin, r2 := r.Coefficients()
	if math.Abs(float64(twoRCos)-2*R*math.Cos(theta)) > 1e-6 {
		t.Fatalf("twoRCosTheta mismatch: got=%f want=%f", twoRCos, 2*R*math.Cos(theta))
	}
	if math.Abs(float64(rSin)-R*math.Sin(theta)) > 1e-6 {
		t.Fatalf("RSinTheta mismatch: got=%f want=%f", rSin, R*math.Sin(theta))
	}
	if math.Abs(float64(r2)-R*R) > 1e-6 {
		t.Fatalf("Rsquared mismatch: got=%f want=%f", r2, R*R)
	}
	if r.Amplitude() != 0 {
		t.Fatalf("expected setup to clear excitation, got %f", r.Amplitude())
	}
}

func TestResonatorDecaysMonotonicallyWhenDamped(t *testing.T) {
	m := singleModeModel(t, 440, decayForRadius(0.999, testSampleRate))
	var r Resonator
	r.setup(m, 0, testSampleRate)
	r.ampR = 1

	peaks := windowPeaks(impulseResponse(&r, 24000), 480)
	for i := 1; i < len(peaks); i++ {
		if peaks[i] >= peaks[i-1] {
			t.Fatalf("envelope did not decay at window %d: prev=%e cur=%e", i, peaks[i-1], peaks[i])
		}
	}
}

func TestResonatorIsUndampedAtUnitRadius(t *testing.T) {
	m := singleModeModel(t, 440, 0)
	var r Resonator
	r.setup(m, 0, testSampleRate)
	if _, _, r2 := r.Coefficients(); r2 != 1 {
		t.Fatalf("expected R^2 == 1 for zero decay, got %f", r2)
	}
	r.ampR = 1

	peaks := windowPeaks(impulseResponse(&r, 20000), 480)
	first := peaks[0]
	for i, p := range peaks {
		if math.Abs(p-first) > 0.02*first {
			t.Fatalf("expected constant envelope, window %d peak=%f first=%f", i, p, first)
		}
	}
}

func TestComputeFilterCoefsClearsHistory(t *testing.T) {
	m := singleModeModel(t, 440, decayForRadius(0.999, testSampleRate))
	var r Resonator
	r.setup(m, 0, testSampleRate)
	r.ampR = 1
	_ = impulseResponse(&r, 64)
	if r.hist[0].y1 == 0 && r.hist[0].y2 == 0 {
		t.Fatalf("expected ringing state before recompute")
	}

	r.computeCoefs(m, testSampleRate)
	if r.hist[0] != (history{}) {
		t.Fatalf("expected silent history after recompute, got %+v", r.hist[0])
	}
	if r.Amplitude() != 1 {
		t.Fatalf("recompute must not touch excitation, got %f", r.Amplitude())
	}
}

func TestProcessBlockMatchesPerSampleProcess(t *testing.T) {
	m := singleModeModel(t, 660, decayForRadius(0.9995, testSampleRate))
	var a, b Resonator
	a.setup(m, 0, testSampleRate)
	b.setup(m, 0, testSampleRate)
	a.ampR, b.ampR = 0.25, 0.25

	in := make([]float32, 256)
	in[0] = 1
	in[17] = -0.5
	want := make([]float32, len(in))
	for i, x := range in {
		want[i] = a.Process(x)
	}

	got := make([]float32, len(in))
	b.processBlock(0, in, 1, got, 1, len(in), 0, 1)
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6*math.Abs(float64(want[i]))+1e-12 {
			t.Fatalf("sample %d mismatch: block=%e process=%e", i, got[i], want[i])
		}
	}
}
