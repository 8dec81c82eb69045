package modal

import "github.com/cwbudde/algo-approx"

// dbToLinear converts decibels to an amplitude factor, 10^(db/20).
func dbToLinear(db float32) float32 {
	const ln10Over20 = 0.11512925464970228
	return approx.FastExp(db * ln10Over20)
}
