package modal

import "math"

const twoPi = 2.0 * math.Pi

type history struct {
	y1 float32
	y2 float32
}

// Resonator is a two-pole resonant filter tuned to one mode of a Model.
type Resonator struct {
	mode int

	twoRCosTheta float32
	rSinTheta    float32
	rSquared     float32

	// ampR holds the excitation amplitude set by the last impact.
	ampR float32

	hist [MaxChannels]history
}

// setup binds the resonator to a mode and derives fresh coefficients.
func (r *Resonator) setup(m *Model, mode int, sampleRate float32) {
	r.ampR = 0
	r.mode = mode
	r.computeCoefs(m, sampleRate)
}

// computeCoefs derives the filter coefficients from the mode's scaled
// frequency and decay. It must run after every change to either, and it
// silences the filter history.
func (r *Resonator) computeCoefs(m *Model, sampleRate float32) {
	omega := float64(m.Frequencies[r.mode]*m.FreqScale) * twoPi
	theta := omega / float64(sampleRate)
	radius := math.Exp(float64(m.Decays[r.mode]*m.DecayScale) / float64(sampleRate))

	R := float32(radius)
	r.twoRCosTheta = 2.0 * R * float32(math.Cos(theta))
	r.rSinTheta = R * float32(math.Sin(theta))
	r.rSquared = R * R
	r.hist = [MaxChannels]history{}
}

// Process advances the channel 0 recursion by one sample.
func (r *Resonator) Process(input float32) float32 {
	return r.processChannel(0, input)
}

func (r *Resonator) processChannel(ch int, input float32) float32 {
	h := &r.hist[ch]
	y := r.twoRCosTheta*h.y1 - r.rSquared*h.y2 + r.ampR*input
	h.y2 = h.y1
	h.y1 = y
	return y
}

// processBlock runs the recursion across an interleaved block, adding
// (in+dither) filtered and scaled by gain into out.
func (r *Resonator) processBlock(ch int, in []float32, inStride int, out []float32, outStride int, frames int, dither float32, gain float32) {
	a1 := r.twoRCosTheta
	a2 := r.rSquared
	amp := r.ampR
	h := r.hist[ch]
	si, di := 0, 0
	for n := 0; n < frames; n++ {
		y := a1*h.y1 - a2*h.y2 + amp*(in[si]+dither)
		h.y2 = h.y1
		h.y1 = y
		out[di] += y * gain
		si += inStride
		di += outStride
	}
	r.hist[ch] = h
}

// setGain replaces the excitation amplitude with the average blended gain of
// the given impacts. Filter history is left ringing.
func (r *Resonator) setGain(m *Model, impacts []Impact) {
	r.ampR = 0
	if len(impacts) == 0 {
		return
	}
	oneOverN := 1.0 / float32(len(impacts))
	for i := range impacts {
		r.ampR += oneOverN * impacts[i].blend(m, r.mode) * r.rSinTheta
	}
}

// Mode returns the index of the mode this resonator follows.
func (r *Resonator) Mode() int {
	return r.mode
}

// Coefficients returns 2R·cosθ, R·sinθ and R².
func (r *Resonator) Coefficients() (twoRCosTheta float32, rSinTheta float32, rSquared float32) {
	return r.twoRCosTheta, r.rSinTheta, r.rSquared
}

// Amplitude returns the current excitation amplitude.
func (r *Resonator) Amplitude() float32 {
	return r.ampR
}
