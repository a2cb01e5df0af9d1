package poster

type DimensionPreset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var DimensionPresets = []DimensionPreset{
	{Name: "Post", Width: 1080, Height: 1350},
	{Name: "Story", Width: 1080, Height: 1920},
	{Name: "Square", Width: 1080, Height: 1080},
}

// LookupDimensionPreset finds a preset by name.
func LookupDimensionPreset(name string) (DimensionPreset, bool) {
	for _, preset := range DimensionPresets {
		if preset.Name == name {
			return preset, true
		}
	}
	return DimensionPreset{}, false
}

var GradientPresets = []string{
	"linear-gradient(to bottom, #000000, #434343)",
	"linear-gradient(to bottom, #0f2027, #2c5364)",
	"linear-gradient(to bottom, #12c2e9, #c471ed, #f64f59)",
	"linear-gradient(to bottom, #FF5F6D, #FFC371)",
}
