package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func TestPeakFrequencyFindsSine(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 440.0, 0.5, 10)
	hz, err := PeakFrequency(x, sr, 8192)
	if err != nil {
		t.Fatalf("PeakFrequency: %v", err)
	}
	if math.Abs(hz-440) > 1 {
		t.Fatalf("expected 440 Hz, got %f", hz)
	}
}

func TestPeakFrequencyRejectsBadSize(t *testing.T) {
	if _, err := PeakFrequency(make([]float64, 100), 48000, 1000); err == nil {
		t.Fatalf("expected error for non power-of-two fft size")
	}
	if _, err := PeakFrequency(make([]float64, 1024), 48000, 1024); err == nil {
		t.Fatalf("expected error for silent input")
	}
}

func TestPeaksOrdersByLevel(t *testing.T) {
	sr := 48000
	a := makeDecaySine(sr, 440.0, 0.5, 10)
	b := makeDecaySine(sr, 1320.0, 0.5, 10)
	x := make([]float64, len(a))
	for i := range x {
		x[i] = a[i] + 0.5*b[i]
	}
	peaks, err := Peaks(x, sr, 16384, 4, 20)
	if err != nil {
		t.Fatalf("Peaks: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("expected two peaks, got %+v", peaks)
	}
	if math.Abs(peaks[0].Hz-440) > 1 || math.Abs(peaks[1].Hz-1320) > 1 {
		t.Fatalf("unexpected peaks %+v", peaks)
	}
	if d := peaks[0].DB - peaks[1].DB; math.Abs(d-6.02) > 0.5 {
		t.Fatalf("expected ~6 dB level difference, got %f", d)
	}
}

func TestDecayRateMatchesExponential(t *testing.T) {
	sr := 48000
	tau := 0.5
	x := makeDecaySine(sr, 440.0, 2.0, tau)
	got := DecayRate(x, sr)
	want := -20 / (tau * math.Ln10)
	if math.Abs(got-want) > 1 {
		t.Fatalf("decay rate: got=%f want=%f dB/s", got, want)
	}
	if !math.IsNaN(DecayRate(x[:100], sr)) {
		t.Fatalf("expected NaN for a too short signal")
	}
}

func TestCompareIdenticalSignalsHasLowDistance(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 440.0, 1.5, 0.7)
	m := Compare(x, x, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected very low score for identical signals, got %f", m.Score)
	}
	if m.Similarity < 0.85 {
		t.Fatalf("expected high similarity for identical signals, got %f", m.Similarity)
	}
	if m.PeakDiffCents > 1 {
		t.Fatalf("expected matching peaks, got %f cents", m.PeakDiffCents)
	}
}

func TestCompareDifferentSignalsHasHigherDistance(t *testing.T) {
	sr := 48000
	a := makeDecaySine(sr, 261.63, 1.8, 0.8)
	b := makeDecaySine(sr, 330.0, 0.8, 0.25)
	m := Compare(a, b, sr)
	if m.Score < 0.25 {
		t.Fatalf("expected higher score for different signals, got %f", m.Score)
	}
	if m.PeakDiffCents < 300 {
		t.Fatalf("expected a large pitch difference, got %f cents", m.PeakDiffCents)
	}
}

func TestCompareEmptyInputIsWorstScore(t *testing.T) {
	m := Compare(nil, []float64{1, 2, 3}, 48000)
	if m.Score != 1 || m.Similarity != 0 {
		t.Fatalf("expected worst score, got %+v", m)
	}
}

func TestEstimateLagFindsPositiveShift(t *testing.T) {
	const (
		n      = 8192
		shift  = 237
		maxLag = 600
	)
	ref := randomSignal(n, 7)
	cand := make([]float64, n)
	copy(cand, ref[shift:])

	if got := estimateLag(ref, cand, maxLag); got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}
}

func TestEstimateLagFindsNegativeShift(t *testing.T) {
	const (
		n      = 8192
		shift  = -191
		maxLag = 600
	)
	ref := randomSignal(n, 11)
	cand := make([]float64, n)
	copy(cand[-shift:], ref)

	if got := estimateLag(ref, cand, maxLag); got != shift {
		t.Fatalf("estimateLag() = %d, want %d", got, shift)
	}
}

func BenchmarkCompare(b *testing.B) {
	const sr = 48000
	ref := makeDecaySine(sr, 440, 3, 0.8)
	cand := makeDecaySine(sr, 445, 3, 0.7)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compare(ref, cand, sr)
	}
}

func makeDecaySine(sr int, freq float64, durationSec float64, decaySec float64) []float64 {
	n := max(int(float64(sr)*durationSec), 1)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		out[i] = math.Exp(-t/decaySec) * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}
