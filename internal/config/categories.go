package config

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// categoryIndices lists the validation samples rendered for each category.
var categoryIndices = map[string][]int{
	"photos":       seq(26),
	"hydrant":      {5, 19, 28, 43, 65, 100, 117, 119, 143, 149, 169, 188, 202, 210, 229, 258, 315, 332, 349, 355, 373, 393, 408, 417, 436, 457, 472},
	"toybus":       {11, 26, 59, 100, 134},
	"toytruck":     {4, 110, 118, 315},
	"toyplane":     {280, 282},
	"sandwich":     {72, 120, 137, 165, 186, 210, 228, 277},
	"toilet":       {1, 56, 116, 181, 261, 300},
	"bench":        {2, 32},
	"chair":        {17, 19, 20, 24, 26},
	"umbrella":     {43, 82, 110, 150, 261},
	"cosy":         seq(40),
	"parkingmeter": {8},
	"tv":           {352, 435, 438, 439, 441, 442, 443, 445, 446, 447},
}

// figureIndices is the smaller selection used for paper figures.
var figureIndices = map[string][]int{
	"hydrant":  {117, 332, 355},
	"toybus":   {26, 134},
	"toyplane": {49},
	"chair":    {306},
	"sandwich": {228},
	"cosy":     {18, 31},
}

// Kind groups categories by dataset layout.
type Kind int

const (
	KindCO3D Kind = iota
	KindCosy
	KindPhotos
)

func (k Kind) String() string {
	switch k {
	case KindCosy:
		return "cosy"
	case KindPhotos:
		return "photos"
	default:
		return "co3d"
	}
}

// KindOf returns the dataset layout a category belongs to.
func KindOf(category string) Kind {
	switch category {
	case "cosy":
		return KindCosy
	case "photos":
		return KindPhotos
	default:
		return KindCO3D
	}
}

// Categories returns the known category names.
func Categories() []string {
	out := make([]string, 0, len(categoryIndices))
	for name := range categoryIndices {
		out = append(out, name)
	}
	return out
}
