package modelfile

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// Damping holds Rayleigh damping coefficients: a mode with stiffness
// eigenvalue λ decays at (Gamma·λ + Eta)/2 per second.
type Damping struct {
	Gamma float64
	Eta   float64
}

// Audible frequency range kept by Cull.
const (
	MinAudibleHz = 20.0
	MaxAudibleHz = 22000.0
)

// FromEigen builds a model from generalized eigenvalues λ (ω² of the
// undamped modes) and the matching mode-shape rows. shapes[row][mode] is the
// displacement of one degree of freedom.
func FromEigen(id string, eigenvalues []float64, shapes [][]float64, d Damping) (*File, error) {
	if len(eigenvalues) == 0 {
		return nil, fmt.Errorf("no eigenvalues")
	}
	for r, row := range shapes {
		if len(row) != len(eigenvalues) {
			return nil, fmt.Errorf("shape row %d has %d modes, want %d", r, len(row), len(eigenvalues))
		}
	}

	f := &File{ID: id, Modes: len(eigenvalues), Vertices: len(shapes)}
	for _, lambda := range eigenvalues {
		delta := d.Gamma*lambda + d.Eta
		// Roots of s² + δs + λ = 0; the imaginary part is the damped angular frequency.
		s := (complex(-delta, 0) + cmplx.Sqrt(complex(delta*delta-4*lambda, 0))) / 2
		f.Freqs = append(f.Freqs, float32(math.Abs(imag(s))/(2*math.Pi)))
		f.Decays = append(f.Decays, float32(real(s)))
	}
	f.Gains = make([]float32, 0, f.Modes*f.Vertices)
	for _, row := range shapes {
		for _, g := range row {
			f.Gains = append(f.Gains, float32(g))
		}
	}
	return f, nil
}

// keep returns a new file holding only the listed modes, with gains taken
// from cols (cols[k] is the gain column of the k-th kept mode).
func (f *File) keep(modes []int, cols [][]float32) *File {
	out := &File{ID: f.ID, Modes: len(modes), Vertices: f.Vertices, Mesh: f.Mesh}
	out.Freqs = make([]float32, len(modes))
	out.Decays = make([]float32, len(modes))
	out.Gains = make([]float32, len(modes)*f.Vertices)
	for k, m := range modes {
		out.Freqs[k] = f.Freqs[m]
		out.Decays[k] = f.Decays[m]
		for row := 0; row < f.Vertices; row++ {
			out.Gains[row*out.Modes+k] = cols[k][row]
		}
	}
	return out
}

func (f *File) column(mode int) []float32 {
	col := make([]float32, f.Vertices)
	for row := range col {
		col[row] = f.Gain(row, mode)
	}
	return col
}

// Cull drops modes outside [minHz, maxHz] (exclusive bounds).
func (f *File) Cull(minHz float32, maxHz float32) *File {
	var modes []int
	var cols [][]float32
	for m := 0; m < f.Modes; m++ {
		if f.Freqs[m] > minHz && f.Freqs[m] < maxHz {
			modes = append(modes, m)
			cols = append(cols, f.column(m))
		}
	}
	return f.keep(modes, cols)
}

// mergeBandwidth is the frequency span below which neighbouring modes are
// perceptually merged: 3 Hz at 15 Hz rising to 45 Hz at 2 kHz and 90 Hz at 8 kHz.
func mergeBandwidth(hz float64) float64 {
	const (
		t0, t1, t2 = 15.0, 2000.0, 8000.0
		y0, y1, y2 = 3.0, 45.0, 90.0
	)
	switch {
	case hz < 0:
		return 0
	case hz <= t1:
		return y0 + (y1-y0)/(t1-t0)*(hz-t0)
	default:
		return y1 + (y2-y1)/(t2-t1)*(hz-t1)
	}
}

// Aggregate sorts modes by frequency and folds every run of modes closer than
// the merge bandwidth into its lowest member, summing their gains. Modes whose
// summed gains are all zero are dropped.
func (f *File) Aggregate() *File {
	order := make([]int, f.Modes)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return f.Freqs[order[a]] < f.Freqs[order[b]] })

	var modes []int
	var cols [][]float32
	for i := 0; i < len(order); {
		lead := order[i]
		x := float64(f.Freqs[lead])
		width := mergeBandwidth(x)
		col := make([]float32, f.Vertices)
		j := i
		for ; j < len(order) && float64(f.Freqs[order[j]])-x < width; j++ {
			for row := range col {
				col[row] += f.Gain(row, order[j])
			}
		}
		if j == i {
			j++
			copy(col, f.column(lead))
		}
		if !allZero(col) {
			modes = append(modes, lead)
			cols = append(cols, col)
		}
		i = j
	}
	return f.keep(modes, cols)
}

func allZero(x []float32) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}
