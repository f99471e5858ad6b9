package robot

// Color is a health indicator color.
type Color string

const (
	Green  Color = "green"
	Blue   Color = "blue"
	Orange Color = "orange"
	Red    Color = "red"
)

// Battery thresholds in percent. A capacity exactly on a threshold belongs
// to the higher tier.
const (
	HealthGreen  = 85
	HealthBlue   = 75
	HealthOrange = 60
)

// HealthColor maps a battery capacity (0-100) to an indicator color.
func HealthColor(capacity float64) Color {
	switch {
	case capacity >= HealthGreen:
		return Green
	case capacity >= HealthBlue:
		return Blue
	case capacity >= HealthOrange:
		return Orange
	default:
		return Red
	}
}
