package robot

// DefaultBaudRate is the STS servo bus rate.
const DefaultBaudRate = 1_000_000

// HardwareConfig describes the servo bus and how mechanisms map onto it.
type HardwareConfig struct {
	Port        string                 `json:"port"`
	BaudRate    int                    `json:"baud_rate,omitempty"`
	Hz          int                    `json:"hz,omitempty"`
	Calibration Calibration            `json:"calibration,omitempty"`
	Endstops    map[SensorName]Endstop `json:"endstops,omitempty"`
	Drive       DriveGeometry          `json:"drive"`
}

// Endstop is a soft limit switch derived from an actuator's normalized
// position. It is active when the position is at or beyond Threshold in the
// direction given by Above.
type Endstop struct {
	Actuator  ActuatorName `json:"actuator"`
	Threshold float64      `json:"threshold"`
	Above     bool         `json:"above"`
}

// DriveGeometry holds the wheel dimensions used by TankDrive.
type DriveGeometry struct {
	WheelTravelMM float64 `json:"wheel_travel_mm"`
	TrackWidthMM  float64 `json:"track_width_mm"`
	VelocityPct   float64 `json:"velocity_pct"`
}

// DefaultDriveGeometry returns the geometry of a 200 mm-travel wheel base.
func DefaultDriveGeometry() DriveGeometry {
	return DriveGeometry{
		WheelTravelMM: 200,
		TrackWidthMM:  176,
		VelocityPct:   50,
	}
}

// DefaultEndstops places the bumpers at the ends of each mechanism's range.
func DefaultEndstops() map[SensorName]Endstop {
	return map[SensorName]Endstop{
		RockerUp:   {Actuator: Rocker, Threshold: 95, Above: true},
		RockerDown: {Actuator: Rocker, Threshold: -95},
		BasketUp:   {Actuator: Arm, Threshold: 95, Above: true},
		BasketDown: {Actuator: Arm, Threshold: -95},
	}
}

// IsCalibrated returns true if every actuator has calibration data.
func (h *HardwareConfig) IsCalibrated() bool {
	for _, name := range AllActuators() {
		if _, ok := h.Calibration[name]; !ok {
			return false
		}
	}
	return true
}

// ApplyDefaults fills zero values with defaults.
func (h *HardwareConfig) ApplyDefaults() {
	if h.BaudRate == 0 {
		h.BaudRate = DefaultBaudRate
	}
	if h.Hz <= 0 {
		h.Hz = 60
	}
	if len(h.Endstops) == 0 {
		h.Endstops = DefaultEndstops()
	}
	if h.Drive == (DriveGeometry{}) {
		h.Drive = DefaultDriveGeometry()
	}
}
