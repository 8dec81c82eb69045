// Package analysis measures rendered resonator output: spectral peaks, decay
// slopes and an objective distance between two recordings.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"
)

// Peak is one interpolated spectral maximum.
type Peak struct {
	Hz float64
	DB float64
}

// MagnitudeSpectrum returns |X[k]| for k in [0, fftSize/2] of the
// Hann-windowed start of x. Shorter inputs are zero padded.
func MagnitudeSpectrum(x []float64, fftSize int) ([]float64, error) {
	if fftSize < 4 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 4, got %d", fftSize)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	n := min(len(x), fftSize)
	buf := make([]float64, fftSize)
	for i := 0; i < n; i++ {
		buf[i] = x[i] * hann(i, n)
	}
	spec := make([]complex128, fftSize/2+1)
	plan.Forward(spec, buf)
	mag := make([]float64, len(spec))
	for k := range spec {
		mag[k] = cmplx.Abs(spec[k])
	}
	return mag, nil
}

// PeakFrequency returns the frequency of the strongest bin, refined by
// parabolic interpolation on the dB magnitudes.
func PeakFrequency(x []float64, sampleRate int, fftSize int) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	mag, err := MagnitudeSpectrum(x, fftSize)
	if err != nil {
		return 0, err
	}
	best := 1
	for k := 2; k < len(mag)-1; k++ {
		if mag[k] > mag[best] {
			best = k
		}
	}
	if mag[best] <= 0 {
		return 0, fmt.Errorf("no spectral energy")
	}
	return interpolatePeak(mag, best, sampleRate, fftSize).Hz, nil
}

// Peaks returns up to maxPeaks local maxima no more than rangeDB below the
// strongest one, loudest first.
func Peaks(x []float64, sampleRate int, fftSize int, maxPeaks int, rangeDB float64) ([]Peak, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	mag, err := MagnitudeSpectrum(x, fftSize)
	if err != nil {
		return nil, err
	}
	var top float64
	for k := 1; k < len(mag)-1; k++ {
		top = math.Max(top, mag[k])
	}
	if top <= 0 {
		return nil, nil
	}
	floor := linToDB(top) - rangeDB

	var peaks []Peak
	for k := 1; k < len(mag)-1; k++ {
		if mag[k] <= mag[k-1] || mag[k] < mag[k+1] {
			continue
		}
		if linToDB(mag[k]) < floor {
			continue
		}
		peaks = append(peaks, interpolatePeak(mag, k, sampleRate, fftSize))
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].DB > peaks[j].DB })
	if maxPeaks > 0 && len(peaks) > maxPeaks {
		peaks = peaks[:maxPeaks]
	}
	return peaks, nil
}

// DecayRate is the slope of the RMS envelope in dB per second, fitted from
// the envelope peak down to 60 dB below it. NaN when x is too short.
func DecayRate(x []float64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return math.NaN()
	}
	return decaySlopeDBPerS(rmsEnvelope(x, envFrame, envHop), float64(envHop)/float64(sampleRate))
}

func interpolatePeak(mag []float64, k int, sampleRate int, fftSize int) Peak {
	binHz := float64(sampleRate) / float64(fftSize)
	a := linToDB(mag[k-1])
	b := linToDB(mag[k])
	c := linToDB(mag[k+1])
	var delta float64
	if den := a - 2*b + c; den != 0 {
		delta = 0.5 * (a - c) / den
	}
	return Peak{
		Hz: (float64(k) + delta) * binHz,
		DB: b - 0.25*(a-c)*delta,
	}
}

func hann(i int, n int) float64 {
	if n < 2 {
		return 1
	}
	return 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}
