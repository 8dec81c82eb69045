package modelfile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-modal/modal"
)

func TestLoadJSONRoundTripsThroughModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models", "bar.json")
	src := &File{
		ID:       "bar",
		Modes:    2,
		Vertices: 3,
		Freqs:    []float32{440, 1210},
		Decays:   []float32{-4, -9},
		Gains:    []float32{1, 0.5, 0, 0.25, 0, 0},
	}
	if err := SaveJSON(path, src); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	f, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if f.ID != "bar" || f.Gain(1, 1) != 0.25 {
		t.Fatalf("unexpected file contents: %+v", f)
	}
	m, err := f.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if m.ModeCount != 2 || m.VertexCount != 3 || m.Frequencies[1] != 1210 {
		t.Fatalf("unexpected model: %+v", m)
	}
}

func TestLoadJSONReadsLowercaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	raw := `{"id":"x","modes":1,"vertices":3,"freqs":[100],"decays":[-2],"gains":[1,0,0]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if f.Freqs[0] != 100 || f.Decays[0] != -2 {
		t.Fatalf("unexpected parse: %+v", f)
	}
}

func TestValidateRejectsBadFiles(t *testing.T) {
	f := &File{Modes: 1, Vertices: 3, Freqs: []float32{100}, Decays: []float32{-1}, Gains: []float32{1}}
	if err := f.Validate(); !errors.Is(err, modal.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	big := &File{Modes: modal.MaxResonators + 1, Vertices: 1}
	if err := big.Validate(); !errors.Is(err, modal.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	growing := &File{Modes: 1, Vertices: 1, Freqs: []float32{100}, Decays: []float32{2}, Gains: []float32{1}}
	if err := growing.Validate(); err == nil {
		t.Fatalf("expected positive decay to be rejected")
	}
}

func TestFromEigenDerivesDampedModes(t *testing.T) {
	w := 2 * math.Pi * 500.0
	d := Damping{Gamma: 1e-6, Eta: 4}
	f, err := FromEigen("e", []float64{w * w}, [][]float64{{0.5}, {0}, {0}}, d)
	if err != nil {
		t.Fatalf("FromEigen: %v", err)
	}
	delta := d.Gamma*w*w + d.Eta
	wantDecay := -delta / 2
	wantFreq := math.Sqrt(w*w-delta*delta/4) / (2 * math.Pi)
	if math.Abs(float64(f.Decays[0])-wantDecay) > 1e-3 {
		t.Fatalf("decay: got=%f want=%f", f.Decays[0], wantDecay)
	}
	if math.Abs(float64(f.Freqs[0])-wantFreq) > 1e-2 {
		t.Fatalf("freq: got=%f want=%f", f.Freqs[0], wantFreq)
	}
	if f.Vertices != 3 || f.Gain(0, 0) != 0.5 {
		t.Fatalf("unexpected gains: %+v", f)
	}
}

func TestCullKeepsAudibleModes(t *testing.T) {
	f := &File{
		Modes: 3, Vertices: 1,
		Freqs:  []float32{10, 440, 30000},
		Decays: []float32{-1, -2, -3},
		Gains:  []float32{1, 2, 3},
	}
	out := f.Cull(MinAudibleHz, MaxAudibleHz)
	if out.Modes != 1 || out.Freqs[0] != 440 || out.Gains[0] != 2 || out.Decays[0] != -2 {
		t.Fatalf("unexpected cull result: %+v", out)
	}
}

func TestAggregateMergesCloseModes(t *testing.T) {
	f := &File{
		Modes: 4, Vertices: 2,
		Freqs:  []float32{1000, 1010, 3000, 500},
		Decays: []float32{-1, -2, -3, -4},
		Gains: []float32{
			1, 2, 4, 0,
			1, 1, 1, 0,
		},
	}
	out := f.Aggregate()
	if out.Modes != 2 {
		t.Fatalf("expected 500 Hz (all-zero) dropped and 1000/1010 merged, got %d modes: %+v", out.Modes, out)
	}
	if out.Freqs[0] != 1000 || out.Freqs[1] != 3000 {
		t.Fatalf("unexpected frequencies %v", out.Freqs)
	}
	if out.Gain(0, 0) != 3 || out.Gain(1, 0) != 2 {
		t.Fatalf("expected summed gains, got rows %v", out.Gains)
	}
	if out.Decays[0] != -1 {
		t.Fatalf("merged mode should keep the lead decay, got %f", out.Decays[0])
	}
}

func TestPlateProducesLoadableModel(t *testing.T) {
	f, grid, err := Plate(DefaultPlateSpec())
	if err != nil {
		t.Fatalf("Plate: %v", err)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if f.Vertices != len(grid.Vertices)*3 {
		t.Fatalf("expected three gain rows per mesh vertex: rows=%d vertices=%d", f.Vertices, len(grid.Vertices))
	}
	if math.Abs(float64(f.Freqs[0])-180) > 1 {
		t.Fatalf("expected fundamental near 180 Hz, got %f", f.Freqs[0])
	}
	for i := 1; i < f.Modes; i++ {
		if f.Freqs[i] < f.Freqs[i-1] {
			t.Fatalf("expected ascending frequencies at %d", i)
		}
	}
	if _, err := f.Model(); err != nil {
		t.Fatalf("Model: %v", err)
	}
}

func TestPlateMeshSurvivesJSON(t *testing.T) {
	spec := DefaultPlateSpec()
	spec.NX, spec.NY, spec.MaxOrder = 3, 2, 3
	f, grid, err := Plate(spec)
	if err != nil {
		t.Fatalf("Plate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "plate.json")
	if err := SaveJSON(path, f); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if got.Mesh == nil || len(got.Mesh.Vertices) != len(grid.Vertices) || len(got.Mesh.Triangles) != len(grid.Triangles) {
		t.Fatalf("mesh lost in round trip: %+v", got.Mesh)
	}
}

func TestValidateRejectsMeshMismatch(t *testing.T) {
	f, _, err := Plate(DefaultPlateSpec())
	if err != nil {
		t.Fatalf("Plate: %v", err)
	}
	f.Mesh.Vertices = f.Mesh.Vertices[:len(f.Mesh.Vertices)-1]
	if err := f.Validate(); err == nil {
		t.Fatalf("expected mesh validation error")
	}
}
