package config

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Style is a stroke or fill colour with its opacity.
type Style struct {
	Color   string  `toml:"color" json:"color"`
	Opacity float64 `toml:"opacity" json:"opacity"`
}

// Grid is one drawn cell grid. Level 0 hides it.
type Grid struct {
	Level   int     `toml:"level" json:"level"`
	Width   int     `toml:"width" json:"width"`
	Color   string  `toml:"color" json:"color"`
	Opacity float64 `toml:"opacity" json:"opacity"`
}

type Colors struct {
	CellsExtraGyms     Style `toml:"cells_extra_gyms" json:"cellsExtraGyms"`
	CellsMissingGyms   Style `toml:"cells_missing_gyms" json:"cellsMissingGyms"`
	Cell17Filled       Style `toml:"cell17_filled" json:"cell17Filled"`
	Cell14Filled       Style `toml:"cell14_filled" json:"cell14Filled"`
	NearbyCircleBorder Style `toml:"nearby_circle_border" json:"nearbyCircleBorder"`
	NearbyCircleFill   Style `toml:"nearby_circle_fill" json:"nearbyCircleFill"`
	MissingStops1      Style `toml:"missing_stops_1" json:"missingStops1"`
	MissingStops2      Style `toml:"missing_stops_2" json:"missingStops2"`
	MissingStops3      Style `toml:"missing_stops_3" json:"missingStops3"`
}

// MissingStops returns the style of the n-stops-to-next-gym bucket.
func (c Colors) MissingStops(n int) (Style, bool) {
	switch n {
	case 1:
		return c.MissingStops1, true
	case 2:
		return c.MissingStops2, true
	case 3:
		return c.MissingStops3, true
	}
	return Style{}, false
}

// Settings controls how the overlay is drawn.
type Settings struct {
	HighlightGymCandidateCells bool   `toml:"highlight_gym_candidate_cells" json:"highlightGymCandidateCells"`
	HighlightGymCenter         bool   `toml:"highlight_gym_center" json:"highlightGymCenter"`
	AnalyzeForMissingData      bool   `toml:"analyze_for_missing_data" json:"analyzeForMissingData"`
	Grids                      []Grid `toml:"grids" json:"grids"`
	Colors                     Colors `toml:"colors" json:"colors"`
	SaveDataType               string `toml:"save_data_type" json:"saveDataType"`
	SaveDataFormat             string `toml:"save_data_format" json:"saveDataFormat"`
}

func DefaultSettings() Settings {
	black := Style{Color: "#000000", Opacity: 0.5}
	return Settings{
		HighlightGymCandidateCells: true,
		HighlightGymCenter:         false,
		AnalyzeForMissingData:      true,
		Grids: []Grid{
			{Level: 14, Width: 5, Color: "#004D40", Opacity: 0.5},
			{Level: 17, Width: 2, Color: "#388E3C", Opacity: 0.5},
		},
		Colors: Colors{
			CellsExtraGyms:     Style{Color: "#ff0000", Opacity: 0.5},
			CellsMissingGyms:   Style{Color: "#ffa500", Opacity: 0.5},
			Cell17Filled:       black,
			Cell14Filled:       black,
			NearbyCircleBorder: Style{Color: "#000000", Opacity: 0.6},
			NearbyCircleFill:   Style{Color: "#000000", Opacity: 0.4},
			MissingStops1:      Style{Color: "#BF360C", Opacity: 1},
			MissingStops2:      Style{Color: "#E64A19", Opacity: 1},
			MissingStops3:      Style{Color: "#FF5722", Opacity: 1},
		},
		SaveDataType:   "gyms",
		SaveDataFormat: "csv",
	}
}

// LoadSettings reads path over the defaults. An empty path returns the
// defaults. Keys missing from the file keep their default value.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return Settings{}, fmt.Errorf("settings %s: unknown keys %v", path, und)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// DecodeSettings parses TOML text over the defaults.
func DecodeSettings(data string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.Decode(data, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

var colorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func (s Settings) Validate() error {
	for i, g := range s.Grids {
		if g.Level < 0 || g.Level > 30 {
			return fmt.Errorf("grids[%d].level %d out of range 0..30", i, g.Level)
		}
		if g.Width < 0 {
			return fmt.Errorf("grids[%d].width must not be negative", i)
		}
		if err := checkStyle(fmt.Sprintf("grids[%d]", i), Style{Color: g.Color, Opacity: g.Opacity}); err != nil {
			return err
		}
	}
	c := s.Colors
	for name, st := range map[string]Style{
		"cells_extra_gyms":     c.CellsExtraGyms,
		"cells_missing_gyms":   c.CellsMissingGyms,
		"cell17_filled":        c.Cell17Filled,
		"cell14_filled":        c.Cell14Filled,
		"nearby_circle_border": c.NearbyCircleBorder,
		"nearby_circle_fill":   c.NearbyCircleFill,
		"missing_stops_1":      c.MissingStops1,
		"missing_stops_2":      c.MissingStops2,
		"missing_stops_3":      c.MissingStops3,
	} {
		if err := checkStyle("colors."+name, st); err != nil {
			return err
		}
	}
	return nil
}

func checkStyle(name string, st Style) error {
	if !colorRe.MatchString(st.Color) {
		return fmt.Errorf("%s.color %q is not a #rgb or #rrggbb colour", name, st.Color)
	}
	if st.Opacity < 0 || st.Opacity > 1 {
		return fmt.Errorf("%s.opacity %v out of range 0..1", name, st.Opacity)
	}
	return nil
}
