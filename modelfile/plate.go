package modelfile

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-modal/mesh"
	"github.com/cwbudde/algo-modal/modal"
)

// PlateSpec describes a simply supported rectangular plate.
type PlateSpec struct {
	NX          int
	NY          int
	Width       float32
	Height      float32
	Fundamental float64
	MaxOrder    int
	Damping     Damping
}

// DefaultPlateSpec is a small steel-like plate ringing at 180 Hz.
func DefaultPlateSpec() PlateSpec {
	return PlateSpec{
		NX:          8,
		NY:          6,
		Width:       0.4,
		Height:      0.3,
		Fundamental: 180,
		MaxOrder:    8,
		Damping:     Damping{Gamma: 2e-7, Eta: 6},
	}
}

// Plate builds the modal model and matching grid mesh of a rectangular plate
// from its closed-form modes. Every mesh vertex owns three gain rows; the
// transverse displacement sits in the first and the rotational rows are zero.
func Plate(spec PlateSpec) (*File, mesh.Mesh, error) {
	if spec.NX < 1 || spec.NY < 1 || spec.Width <= 0 || spec.Height <= 0 {
		return nil, mesh.Mesh{}, fmt.Errorf("invalid plate geometry %+v", spec)
	}
	if spec.Fundamental <= 0 || spec.MaxOrder < 1 {
		return nil, mesh.Mesh{}, fmt.Errorf("invalid plate modes: fundamental=%f max_order=%d", spec.Fundamental, spec.MaxOrder)
	}

	type plateMode struct {
		m, n int
		k    float64
	}
	lx := float64(spec.Width)
	ly := float64(spec.Height)
	base := 1/(lx*lx) + 1/(ly*ly)
	var modes []plateMode
	for m := 1; m <= spec.MaxOrder; m++ {
		for n := 1; n <= spec.MaxOrder; n++ {
			k := (float64(m*m)/(lx*lx) + float64(n*n)/(ly*ly)) / base
			modes = append(modes, plateMode{m: m, n: n, k: k})
		}
	}
	sort.SliceStable(modes, func(a, b int) bool { return modes[a].k < modes[b].k })
	if len(modes) > modal.MaxResonators {
		modes = modes[:modal.MaxResonators]
	}

	grid := mesh.Grid(spec.NX, spec.NY, spec.Width, spec.Height)
	eigen := make([]float64, len(modes))
	for i, pm := range modes {
		w := 2 * math.Pi * spec.Fundamental * pm.k
		eigen[i] = w * w
	}
	shapes := make([][]float64, 0, len(grid.Vertices)*3)
	for _, v := range grid.Vertices {
		disp := make([]float64, len(modes))
		for i, pm := range modes {
			disp[i] = math.Sin(float64(pm.m)*math.Pi*float64(v[0])/lx) * math.Sin(float64(pm.n)*math.Pi*float64(v[1])/ly)
		}
		shapes = append(shapes, disp, make([]float64, len(modes)), make([]float64, len(modes)))
	}

	f, err := FromEigen("plate", eigen, shapes, spec.Damping)
	if err != nil {
		return nil, mesh.Mesh{}, err
	}
	f = f.Cull(MinAudibleHz, MaxAudibleHz).Aggregate()
	f.Mesh = &grid
	return f, grid, nil
}
