package robot

// StepsPerTurn is the resolution of an STS servo encoder.
const StepsPerTurn = 4096

// ServoCalibration holds calibration data for the servo behind one actuator.
type ServoCalibration struct {
	ID           int  `json:"id"`
	Inverted     bool `json:"inverted,omitempty"`
	HomingOffset int  `json:"homing_offset,omitempty"`
	RangeMin     int  `json:"range_min"`
	RangeMax     int  `json:"range_max"`
}

// Calibration holds calibration data for all actuators, keyed by name.
type Calibration map[ActuatorName]ServoCalibration

// Normalize converts a raw servo position to a normalized value in the range [-100, 100].
func (c ServoCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	norm := (float64(raw-c.RangeMin)/rangeSize)*200 - 100
	if c.Inverted {
		return -norm
	}
	return norm
}

// Denormalize converts a normalized value [-100, 100] to a raw servo position.
func (c ServoCalibration) Denormalize(norm float64) int {
	if c.Inverted {
		norm = -norm
	}
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int((norm+100)/200*rangeSize) + c.RangeMin
}

// Clamp limits a raw position to the calibrated range.
func (c ServoCalibration) Clamp(raw int) int {
	if raw < c.RangeMin {
		return c.RangeMin
	}
	if raw > c.RangeMax {
		return c.RangeMax
	}
	return raw
}

// Turns converts a raw step delta to turns. Inverted servos count backwards.
func (c ServoCalibration) Turns(steps int) float64 {
	t := float64(steps) / StepsPerTurn
	if c.Inverted {
		return -t
	}
	return t
}

// ServoIDs returns the servo IDs for all actuators in the calibration.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllActuators() to ensure consistent ordering
	for _, name := range AllActuators() {
		if sc, ok := c[name]; ok {
			ids = append(ids, sc.ID)
		}
	}
	return ids
}

// ByID returns actuator name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (ActuatorName, ServoCalibration, bool) {
	for name, sc := range c {
		if sc.ID == id {
			return name, sc, true
		}
	}
	return "", ServoCalibration{}, false
}
