package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Input tensor names understood by Server.
const (
	InputImage        = "input_im"
	InputLight        = "light"
	InputLightEnabled = "light_enabled"
	InputDepthPrior   = "depth_prior"
)

// TensorSpec names a graph input or output and fixes its shape.
type TensorSpec struct {
	Name  string  `json:"name"`
	Shape []int64 `json:"shape"`
}

// Size is the number of elements the shape holds.
func (s TensorSpec) Size() int {
	n := 1
	for _, d := range s.Shape {
		n *= int(d)
	}
	return n
}

// Metadata describes an exported derendering network. It is stored next to
// the ONNX file.
type Metadata struct {
	ImageSize int          `json:"image_size"`
	MinDepth  float64      `json:"min_depth"`
	MaxDepth  float64      `json:"max_depth"`
	Inputs    []TensorSpec `json:"inputs"`
	Outputs   []TensorSpec `json:"outputs"`
}

// LoadMetadata reads and validates a metadata sidecar.
func LoadMetadata(path string) (Metadata, error) {
	var metadata Metadata
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadata.Validate(); err != nil {
		return metadata, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return metadata, nil
}

func (m Metadata) Validate() error {
	if m.ImageSize <= 0 {
		return fmt.Errorf("image_size must be positive")
	}
	if m.MaxDepth <= m.MinDepth {
		return fmt.Errorf("max_depth %.3f must exceed min_depth %.3f", m.MaxDepth, m.MinDepth)
	}
	if len(m.Outputs) == 0 {
		return fmt.Errorf("no outputs declared")
	}
	if _, ok := m.Input(InputImage); !ok {
		return fmt.Errorf("missing %q input", InputImage)
	}
	seen := make(map[string]bool)
	for _, spec := range append(append([]TensorSpec(nil), m.Inputs...), m.Outputs...) {
		if spec.Name == "" {
			return fmt.Errorf("tensor with empty name")
		}
		if seen[spec.Name] {
			return fmt.Errorf("tensor %q declared twice", spec.Name)
		}
		seen[spec.Name] = true
		if len(spec.Shape) == 0 {
			return fmt.Errorf("tensor %q has no shape", spec.Name)
		}
		for _, d := range spec.Shape {
			if d <= 0 {
				return fmt.Errorf("tensor %q has non-positive dimension in %v", spec.Name, spec.Shape)
			}
		}
	}
	if spec, ok := m.Input(InputLight); ok && spec.Size() != 4 {
		return fmt.Errorf("%q input must hold 4 values, shape %v", InputLight, spec.Shape)
	}
	if _, ok := m.Input(InputLight); ok {
		if _, ok := m.Input(InputLightEnabled); !ok {
			return fmt.Errorf("%q input requires %q", InputLight, InputLightEnabled)
		}
	}
	return nil
}

// Input looks up a declared input by name.
func (m Metadata) Input(name string) (TensorSpec, bool) {
	for _, spec := range m.Inputs {
		if spec.Name == name {
			return spec, true
		}
	}
	return TensorSpec{}, false
}

// Tensor is a dense float32 array in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Dim returns dimension i counted from the end, so Dim(1) is the width of
// an NCHW tensor.
func (t *Tensor) Dim(i int) int {
	if i <= 0 || i > len(t.Shape) {
		return 1
	}
	return int(t.Shape[len(t.Shape)-i])
}

// Outputs holds the named components of one forward pass.
type Outputs map[string]*Tensor

// Get returns a component or an error naming the missing key.
func (o Outputs) Get(name string) (*Tensor, error) {
	t, ok := o[name]
	if !ok {
		return nil, fmt.Errorf("model output %q not available", name)
	}
	return t, nil
}
