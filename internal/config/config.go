package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Outputs toggles the individual visualizations.
type Outputs struct {
	Reconstruction bool `json:"reconstruction"`
	Normal         bool `json:"normal"`
	Depth          bool `json:"depth"`
	Bump           bool `json:"bump"`
	NormalNoRef    bool `json:"normal_noref"`
	Diffuse        bool `json:"diffuse"`
	Specular       bool `json:"specular"`
	Input          bool `json:"input"`
	Albedo         bool `json:"albedo"`
	Ball           bool `json:"ball"`
	Neural         bool `json:"neural"`
	LRAlbedo       bool `json:"lr_albedo"`
	LRNormal       bool `json:"lr_normal"`
}

type Config struct {
	Category     string `json:"category"`
	ModelPath    string `json:"model_path"`
	MetadataPath string `json:"metadata_path,omitempty"`
	ONNXLibrary  string `json:"onnx_library,omitempty"`
	CUDADevice   int    `json:"cuda_device"`

	CO3DBase   string `json:"co3d_base"`
	CosyBase   string `json:"cosy_base"`
	PhotosBase string `json:"photos_base"`
	OutRoot    string `json:"out_root"`

	ImageSize int     `json:"image_size"`
	MinDepth  float64 `json:"min_depth"`
	MaxDepth  float64 `json:"max_depth"`

	// Light sweep.
	Frames   int     `json:"frames"`
	RotStart float64 `json:"rot_start"`
	RotTime  float64 `json:"rot_time"`
	DStart   float64 `json:"d_start"`
	DSpeed   float64 `json:"d_speed"`
	AMin     float64 `json:"a_min"`
	AMax     float64 `json:"a_max"`
	BMin     float64 `json:"b_min"`
	BMax     float64 `json:"b_max"`
	BallSize int     `json:"ball_size"`

	Last    int   `json:"last"`
	Figure  bool  `json:"figure"`
	Indices []int `json:"indices,omitempty"`

	DryRun      bool   `json:"dry_run"`
	Format      string `json:"format"`
	JPEGQuality int    `json:"jpeg_quality"`
	GIF         bool   `json:"gif"`
	GIFDelay    int    `json:"gif_delay,omitempty"`

	Outputs Outputs `json:"outputs"`
}

// Paths are the directories a run reads from and writes to.
type Paths struct {
	Test        string
	Precomputed string // empty when the category has no priors
	Masks       string // only set for photos
	Out         string
}

// Default returns the configuration of the hydrant validation run.
func Default() Config {
	return Config{
		Category:    "hydrant",
		ModelPath:   filepath.Join("results", "models", "co3d", "model.onnx"),
		CUDADevice:  -1,
		CO3DBase:    filepath.Join("datasets", "co3d"),
		CosyBase:    filepath.Join("datasets", "cosy"),
		PhotosBase:  filepath.Join("datasets", "photos"),
		OutRoot:     filepath.Join("results", "images", "decomposition", "co3d"),
		ImageSize:   256,
		MinDepth:    0.9,
		MaxDepth:    1.1,
		Frames:      8,
		RotStart:    -math.Pi / 4,
		RotTime:     8,
		DStart:      2,
		DSpeed:      0,
		AMin:        0.5,
		AMax:        0.5,
		BMin:        1.5,
		BMax:        1.5,
		BallSize:    256,
		Last:        2,
		Format:      "jpg",
		JPEGQuality: 95,
		GIFDelay:    12,
		Outputs: Outputs{
			Reconstruction: true,
			Normal:         true,
			Diffuse:        true,
			Specular:       true,
			Input:          true,
			Albedo:         true,
		},
	}
}

// Load overlays the JSON file at path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Metadata returns the sidecar path, derived from the model path when unset.
func (c Config) Metadata() string {
	if c.MetadataPath != "" {
		return c.MetadataPath
	}
	return strings.TrimSuffix(c.ModelPath, filepath.Ext(c.ModelPath)) + ".json"
}

func (c Config) Kind() Kind {
	return KindOf(c.Category)
}

func (c Config) Validate() error {
	if _, ok := categoryIndices[c.Category]; !ok {
		return fmt.Errorf("unknown category %q", c.Category)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model path is empty")
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("image size must be positive, got %d", c.ImageSize)
	}
	if c.BallSize <= 0 {
		return fmt.Errorf("ball size must be positive, got %d", c.BallSize)
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", c.Frames)
	}
	if c.RotTime == 0 {
		return fmt.Errorf("rot_time must not be zero")
	}
	if c.MinDepth >= c.MaxDepth {
		return fmt.Errorf("min_depth %.3f must be below max_depth %.3f", c.MinDepth, c.MaxDepth)
	}
	if c.Last < 0 {
		return fmt.Errorf("last must not be negative, got %d", c.Last)
	}
	switch c.Format {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("unsupported output format %q", c.Format)
	}
	if c.GIFDelay < 0 {
		return fmt.Errorf("gif_delay must not be negative, got %d", c.GIFDelay)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", c.JPEGQuality)
	}
	return nil
}

// Paths resolves the dataset and output directories for the category.
func (c Config) Paths() (Paths, error) {
	if _, ok := categoryIndices[c.Category]; !ok {
		return Paths{}, fmt.Errorf("unknown category %q", c.Category)
	}
	p := Paths{Out: filepath.Join(c.OutRoot, c.Category)}
	switch c.Kind() {
	case KindCosy:
		p.Test = filepath.Join(c.CosyBase, "ims", "val")
		p.Precomputed = filepath.Join(c.CosyBase, "precomputed", "val")
	case KindPhotos:
		p.Test = filepath.Join(c.PhotosBase, "imgs_cropped", "val")
		p.Masks = filepath.Join(p.Test, "masks", "val")
	default:
		base := filepath.Join(c.CO3DBase, "extracted_"+c.Category)
		p.Test = filepath.Join(base, "imgs_cropped", "val")
		p.Precomputed = filepath.Join(base, "precomputed", "val")
	}
	return p, nil
}

// SelectIndices returns the sample indices to render.
func (c Config) SelectIndices() ([]int, error) {
	if len(c.Indices) > 0 {
		return append([]int(nil), c.Indices...), nil
	}
	table := categoryIndices
	if c.Figure {
		table = figureIndices
	}
	list, ok := table[c.Category]
	if !ok {
		return nil, fmt.Errorf("no indices for category %q", c.Category)
	}
	if c.Last > 0 && c.Last < len(list) {
		list = list[len(list)-c.Last:]
	}
	return append([]int(nil), list...), nil
}

// ParseIndices parses a comma separated index list such as "5,19,28".
func ParseIndices(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		idx, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", field, err)
		}
		if idx < 0 {
			return nil, fmt.Errorf("invalid index %d: must not be negative", idx)
		}
		out = append(out, idx)
	}
	return out, nil
}
