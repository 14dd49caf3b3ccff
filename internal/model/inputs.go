package model

import (
	"fmt"

	"github.com/Brownie44l1/derender-viz/internal/dataset"
	"github.com/Brownie44l1/derender-viz/internal/light"
)

// fillInputs writes a sample and an optional light override into the input
// buffers of a session, keyed by input name. Buffers keep their length;
// only inputs the graph declares are present in the map.
func fillInputs(buffers map[string][]float32, sample *dataset.Sample, l *light.Light) error {
	img, ok := buffers[InputImage]
	if !ok {
		return fmt.Errorf("model has no %q input", InputImage)
	}
	if len(sample.Input) != len(img) {
		return fmt.Errorf("sample %d has %d values, model expects %d", sample.Index, len(sample.Input), len(img))
	}
	copy(img, sample.Input)

	if data, ok := buffers[InputDepthPrior]; ok {
		if sample.DepthPrior == nil {
			return fmt.Errorf("sample %d has no depth prior", sample.Index)
		}
		if len(sample.DepthPrior) != len(data) {
			return fmt.Errorf("sample %d depth prior has %d values, model expects %d", sample.Index, len(sample.DepthPrior), len(data))
		}
		copy(data, sample.DepthPrior)
	}

	lightData, ok := buffers[InputLight]
	if !ok {
		if l != nil {
			return fmt.Errorf("model takes no %q input", InputLight)
		}
		return nil
	}
	enabled, ok := buffers[InputLightEnabled]
	if !ok || len(enabled) == 0 {
		return fmt.Errorf("%q input requires %q", InputLight, InputLightEnabled)
	}
	if l == nil {
		for i := range lightData {
			lightData[i] = 0
		}
		enabled[0] = 0
		return nil
	}
	v := l.Vector()
	if len(lightData) != len(v) {
		return fmt.Errorf("%q input holds %d values, light has %d", InputLight, len(lightData), len(v))
	}
	copy(lightData, v)
	enabled[0] = 1
	return nil
}
