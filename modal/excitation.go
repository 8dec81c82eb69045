package modal

import "fmt"

// Impact is one hit triangle: three mesh vertices and the barycentric
// weights of the contact point inside it.
type Impact struct {
	Vertices [3]int
	Weights  [3]float32
}

// Impacts groups flat vertex and weight arrays into triangles of three.
func Impacts(points []int, weights []float32) ([]Impact, error) {
	if len(points) != len(weights) {
		return nil, fmt.Errorf("%w: %d impact vertices with %d weights", ErrShapeMismatch, len(points), len(weights))
	}
	if len(points) == 0 || len(points)%3 != 0 {
		return nil, fmt.Errorf("%w: impact vertex count %d is not a positive multiple of 3", ErrShapeMismatch, len(points))
	}
	out := make([]Impact, len(points)/3)
	for i := range out {
		copy(out[i].Vertices[:], points[i*3:i*3+3])
		copy(out[i].Weights[:], weights[i*3:i*3+3])
	}
	return out, nil
}

// blend interpolates the per-vertex gain sums of a mode across the triangle.
func (imp *Impact) blend(m *Model, mode int) float32 {
	g0 := m.VertexGroupSum(imp.Vertices[0], mode)
	g1 := m.VertexGroupSum(imp.Vertices[1], mode)
	g2 := m.VertexGroupSum(imp.Vertices[2], mode)
	return g0*imp.Weights[0] + g1*imp.Weights[1] + g2*imp.Weights[2]
}

// ModeGain returns the barycentric blend of a mode's gain at the impact point.
func (imp Impact) ModeGain(m *Model, mode int) float32 {
	if m == nil {
		return 0
	}
	return imp.blend(m, mode)
}
