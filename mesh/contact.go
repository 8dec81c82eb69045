package mesh

import "math"

// ContactSolver finds the triangle nearest to a contact point.
type ContactSolver struct {
	mesh    Mesh
	centers [][3]float32
}

// NewContactSolver precomputes triangle barycenters for m.
func NewContactSolver(m Mesh) (*ContactSolver, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s := &ContactSolver{
		mesh:    m,
		centers: make([][3]float32, len(m.Triangles)/3),
	}
	for k := range s.centers {
		p := m.Vertices[m.Triangles[k*3]]
		q := m.Vertices[m.Triangles[k*3+1]]
		r := m.Vertices[m.Triangles[k*3+2]]
		s.centers[k] = [3]float32{
			(p[0] + q[0] + r[0]) / 3,
			(p[1] + q[1] + r[1]) / 3,
			(p[2] + q[2] + r[2]) / 3,
		}
	}
	return s, nil
}

// Nearest returns the index of the triangle whose barycenter is closest to p.
func (s *ContactSolver) Nearest(p [3]float32) int {
	best := 0
	bestDist := float32(math.MaxFloat32)
	for k, c := range s.centers {
		d := sub(p, c)
		if dist := dot(d, d); dist < bestDist {
			best = k
			bestDist = dist
		}
	}
	return best
}

// Solve returns, for every contact point, the three vertex indices of the
// nearest triangle and the point's barycentric weights in it, flattened in
// the layout modal.Impacts expects.
func (s *ContactSolver) Solve(points [][3]float32) ([]int, []float32) {
	vertices := make([]int, 0, len(points)*3)
	weights := make([]float32, 0, len(points)*3)
	for _, pt := range points {
		k := s.Nearest(pt)
		i0 := s.mesh.Triangles[k*3]
		i1 := s.mesh.Triangles[k*3+1]
		i2 := s.mesh.Triangles[k*3+2]
		w0, w1, w2 := Barycentric(pt, s.mesh.Vertices[i0], s.mesh.Vertices[i1], s.mesh.Vertices[i2])
		vertices = append(vertices, i0, i1, i2)
		weights = append(weights, w0, w1, w2)
	}
	return vertices, weights
}
