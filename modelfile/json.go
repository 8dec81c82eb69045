// Package modelfile reads and writes modal models as JSON.
package modelfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-modal/mesh"
	"github.com/cwbudde/algo-modal/modal"
)

// File is the JSON schema of a modal model.
type File struct {
	ID       string    `json:"id,omitempty"`
	Modes    int       `json:"modes"`
	Vertices int       `json:"vertices"`
	Freqs    []float32 `json:"freqs"`
	Decays   []float32 `json:"decays"`
	Gains    []float32 `json:"gains"`

	// Mesh is the contact geometry; each mesh vertex owns three gain rows.
	Mesh *mesh.Mesh `json:"mesh,omitempty"`
}

// LoadJSON reads and validates a model file.
func LoadJSON(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// SaveJSON writes f to path, creating parent directories.
func SaveJSON(path string, f *File) error {
	if f == nil {
		return fmt.Errorf("nil model file")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate checks the array lengths against the declared counts.
func (f *File) Validate() error {
	if f.Modes <= 0 {
		return fmt.Errorf("modes must be > 0")
	}
	if f.Vertices <= 0 {
		return fmt.Errorf("vertices must be > 0")
	}
	if f.Modes > modal.MaxResonators {
		return fmt.Errorf("%w: %d modes (max %d)", modal.ErrCapacityExceeded, f.Modes, modal.MaxResonators)
	}
	if len(f.Freqs) != f.Modes || len(f.Decays) != f.Modes {
		return fmt.Errorf("%w: freqs=%d decays=%d for %d modes", modal.ErrShapeMismatch, len(f.Freqs), len(f.Decays), f.Modes)
	}
	if len(f.Gains) != f.Modes*f.Vertices {
		return fmt.Errorf("%w: gains=%d for %d modes x %d vertices", modal.ErrShapeMismatch, len(f.Gains), f.Modes, f.Vertices)
	}
	for i := range f.Freqs {
		if f.Freqs[i] <= 0 {
			return fmt.Errorf("freqs[%d] must be > 0", i)
		}
		if f.Decays[i] > 0 {
			return fmt.Errorf("decays[%d] must be <= 0", i)
		}
	}
	if f.Mesh != nil {
		if err := f.Mesh.Validate(); err != nil {
			return err
		}
		if len(f.Mesh.Vertices)*3 != f.Vertices {
			return fmt.Errorf("%w: %d mesh vertices for %d gain rows", modal.ErrShapeMismatch, len(f.Mesh.Vertices), f.Vertices)
		}
	}
	return nil
}

// Model copies the file into a modal.Model.
func (f *File) Model() (*modal.Model, error) {
	return modal.NewModel(f.Modes, f.Vertices, f.Freqs, f.Decays, f.Gains)
}

// Gain returns the mode-shape entry of a mode at a matrix row.
func (f *File) Gain(row int, mode int) float32 {
	return f.Gains[row*f.Modes+mode]
}
