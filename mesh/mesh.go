// Package mesh maps contact points on a triangle mesh to the impact vertices
// and barycentric weights a modal instance is struck with.
package mesh

import (
	"errors"
	"fmt"
)

// ErrInvalidMesh indicates a triangle list that does not index the vertex list.
var ErrInvalidMesh = errors.New("mesh: invalid triangle list")

// Mesh is an indexed triangle mesh in object space.
type Mesh struct {
	Vertices  [][3]float32 `json:"vertices"`
	Triangles []int        `json:"triangles"`
}

// Validate checks that every triangle references existing vertices.
func (m Mesh) Validate() error {
	if len(m.Triangles) == 0 || len(m.Triangles)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a positive multiple of 3", ErrInvalidMesh, len(m.Triangles))
	}
	for i, v := range m.Triangles {
		if v < 0 || v >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrInvalidMesh, v, i, len(m.Vertices))
		}
	}
	return nil
}

// Grid builds a flat nx x ny quad grid of size w x h in the z=0 plane, split
// into two triangles per quad. Vertex (i, j) has index j*(nx+1)+i.
func Grid(nx int, ny int, w float32, h float32) Mesh {
	nx = max(nx, 1)
	ny = max(ny, 1)
	m := Mesh{
		Vertices:  make([][3]float32, 0, (nx+1)*(ny+1)),
		Triangles: make([]int, 0, nx*ny*6),
	}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices = append(m.Vertices, [3]float32{w * float32(i) / float32(nx), h * float32(j) / float32(ny), 0})
		}
	}
	stride := nx + 1
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a := j*stride + i
			b := a + 1
			c := a + stride
			d := c + 1
			m.Triangles = append(m.Triangles, a, b, c, b, d, c)
		}
	}
	return m
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Barycentric returns the weights of q with respect to triangle (p, a, b).
// q is projected onto the triangle plane; degenerate triangles weigh p fully.
func Barycentric(q, p, a, b [3]float32) (wp, wa, wb float32) {
	u := sub(a, p)
	v := sub(b, p)
	w := sub(q, p)
	n := cross(u, v)
	nn := dot(n, n)
	if nn == 0 {
		return 1, 0, 0
	}
	oneOverNormSqr := 1 / nn
	wb = dot(cross(u, w), n) * oneOverNormSqr
	wa = dot(cross(w, v), n) * oneOverNormSqr
	wp = 1 - wa - wb
	return wp, wa, wb
}
