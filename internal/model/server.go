package model

import (
	"fmt"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/derender-viz/internal/dataset"
	"github.com/Brownie44l1/derender-viz/internal/light"
)

// Options tune how the ONNX Runtime environment is set up.
type Options struct {
	// LibraryPath points at the onnxruntime shared library. Empty keeps
	// the runtime's default lookup.
	LibraryPath string
	// CUDADevice selects a GPU; negative values run on the CPU.
	CUDADevice int
}

// Server runs an exported derendering network. It preallocates one tensor
// per declared input and output, so it must not be used concurrently.
type Server struct {
	session  *ort.AdvancedSession
	Metadata Metadata
	inputs   map[string]*ort.Tensor[float32]
	outputs  map[string]*ort.Tensor[float32]
}

func NewServer(modelPath, metadataPath string, opts Options) (*Server, error) {
	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	s := &Server{
		Metadata: metadata,
		inputs:   make(map[string]*ort.Tensor[float32]),
		outputs:  make(map[string]*ort.Tensor[float32]),
	}

	inputNames := make([]string, 0, len(metadata.Inputs))
	inputValues := make([]ort.ArbitraryTensor, 0, len(metadata.Inputs))
	for _, spec := range metadata.Inputs {
		tensor, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.Shape...))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create input tensor %q: %w", spec.Name, err)
		}
		s.inputs[spec.Name] = tensor
		inputNames = append(inputNames, spec.Name)
		inputValues = append(inputValues, tensor)
	}

	outputNames := make([]string, 0, len(metadata.Outputs))
	outputValues := make([]ort.ArbitraryTensor, 0, len(metadata.Outputs))
	for _, spec := range metadata.Outputs {
		tensor, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.Shape...))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create output tensor %q: %w", spec.Name, err)
		}
		s.outputs[spec.Name] = tensor
		outputNames = append(outputNames, spec.Name)
		outputValues = append(outputValues, tensor)
	}

	options, err := sessionOptions(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	if options != nil {
		defer options.Destroy()
	}

	session, err := ort.NewAdvancedSession(modelPath,
		inputNames, outputNames,
		inputValues, outputValues,
		options)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	s.session = session

	return s, nil
}

func sessionOptions(opts Options) (*ort.SessionOptions, error) {
	if opts.CUDADevice < 0 {
		return nil, nil
	}
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to create CUDA options: %w", err)
	}
	defer cuda.Destroy()
	if err := cuda.Update(map[string]string{"device_id": strconv.Itoa(opts.CUDADevice)}); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to select CUDA device %d: %w", opts.CUDADevice, err)
	}
	if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to enable CUDA: %w", err)
	}
	return options, nil
}

// Forward decomposes one sample. A nil light lets the network shade with the
// light it predicts itself.
func (s *Server) Forward(sample *dataset.Sample, l *light.Light) (Outputs, error) {
	if err := s.fill(sample, l); err != nil {
		return nil, err
	}

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := make(Outputs, len(s.outputs))
	for _, spec := range s.Metadata.Outputs {
		data := s.outputs[spec.Name].GetData()
		out[spec.Name] = &Tensor{
			Shape: append([]int64(nil), spec.Shape...),
			Data:  append([]float32(nil), data...),
		}
	}
	return out, nil
}

func (s *Server) fill(sample *dataset.Sample, l *light.Light) error {
	buffers := make(map[string][]float32, len(s.inputs))
	for name, t := range s.inputs {
		buffers[name] = t.GetData()
	}
	return fillInputs(buffers, sample, l)
}

// MinDepth and MaxDepth bound the depth the network reconstructs.
func (s *Server) MinDepth() float64 { return s.Metadata.MinDepth }

func (s *Server) MaxDepth() float64 { return s.Metadata.MaxDepth }

func (s *Server) Close() {
	for _, t := range s.inputs {
		t.Destroy()
	}
	for _, t := range s.outputs {
		t.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
