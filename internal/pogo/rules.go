// Package pogo holds the gym and pokestop placement rules evaluated over
// level 14 and level 17 cells.
package pogo

const (
	// GymCellLevel is the cell level whose POI count decides how many gyms exist.
	GymCellLevel = 14
	// PoiCellLevel is the cell level that holds at most one game POI.
	PoiCellLevel = 17
	// GymCenterLevel is used to mark the centre of a gym for EX checks.
	GymCenterLevel = 20
)

type Levels struct {
	GymCell   int
	PoiCell   int
	GymCenter int
}

func DefaultLevels() Levels {
	return Levels{GymCell: GymCellLevel, PoiCell: PoiCellLevel, GymCenter: GymCenterLevel}
}

// MissingStops is the number of stops a level 14 cell needs before the next
// gym appears. Zero means no further gym is possible.
func MissingStops(gyms, stops int) int {
	sum := gyms + stops
	switch {
	case sum < 2 && gyms == 0:
		return 2 - sum
	case sum < 6 && gyms < 2:
		return 6 - sum
	case sum < 20 && gyms < 3:
		return 20 - sum
	default:
		return 0
	}
}

// MissingGyms compares the gyms a cell should have with the gyms it has.
// Negative means extra gyms.
func MissingGyms(gyms, stops int) int {
	sum := gyms + stops
	switch {
	case sum < 2:
		return 0 - gyms
	case sum < 6:
		return 1 - gyms
	case sum < 20:
		return 2 - gyms
	default:
		return 3 - gyms
	}
}

func TotalStops(gyms, stops int) int { return gyms + stops }
