package coordinator

import (
	"time"
)

// Duration is a time.Duration that reads and writes as text ("250ms").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalText encodes d in time.Duration string form, e.g. "1.5s".
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText parses any string accepted by time.ParseDuration.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Timing holds every timeout, poll interval, velocity and threshold the
// coordinators use.
type Timing struct {
	Poll Duration `json:"poll"`

	RockTimeout    Duration `json:"rock_timeout"`
	RockHalfway    Duration `json:"rock_halfway"`
	RockBounce     Duration `json:"rock_bounce"`
	RockerVelocity float64  `json:"rocker_velocity"`

	NudgeTurns   float64  `json:"nudge_turns"`
	NudgeTimeout Duration `json:"nudge_timeout"`

	ArmTimeout  Duration `json:"arm_timeout"`
	ArmVelocity float64  `json:"arm_velocity"`

	FlywheelWait      Duration `json:"flywheel_wait"`
	FlywheelPoll      Duration `json:"flywheel_poll"`
	FlywheelThreshold float64  `json:"flywheel_threshold"`
	ShooterVelocity   float64  `json:"shooter_velocity"`

	LongArmHold        Duration `json:"long_arm_hold"`
	LongArmOutVelocity float64  `json:"long_arm_out_velocity"`
	LongArmInVelocity  float64  `json:"long_arm_in_velocity"`
}

// DefaultTiming returns the tuned values for the competition robot.
func DefaultTiming() Timing {
	return Timing{
		Poll: Duration(20 * time.Millisecond),

		RockTimeout:    Duration(3 * time.Second),
		RockHalfway:    Duration(150 * time.Millisecond),
		RockBounce:     Duration(3 * time.Second),
		RockerVelocity: 100,

		NudgeTurns:   1,
		NudgeTimeout: Duration(2 * time.Second),

		ArmTimeout:  Duration(4 * time.Second),
		ArmVelocity: 100,

		FlywheelWait:      Duration(2 * time.Second),
		FlywheelPoll:      Duration(30 * time.Millisecond),
		FlywheelThreshold: 30,
		ShooterVelocity:   90,

		LongArmHold:        Duration(3 * time.Second),
		LongArmOutVelocity: 100,
		LongArmInVelocity:  75,
	}
}

// WithDefaults returns t with every zero field taken from DefaultTiming.
func (t Timing) WithDefaults() Timing {
	d := DefaultTiming()
	fillDuration(&t.Poll, d.Poll)
	fillDuration(&t.RockTimeout, d.RockTimeout)
	fillDuration(&t.RockHalfway, d.RockHalfway)
	fillDuration(&t.RockBounce, d.RockBounce)
	fillFloat(&t.RockerVelocity, d.RockerVelocity)
	fillFloat(&t.NudgeTurns, d.NudgeTurns)
	fillDuration(&t.NudgeTimeout, d.NudgeTimeout)
	fillDuration(&t.ArmTimeout, d.ArmTimeout)
	fillFloat(&t.ArmVelocity, d.ArmVelocity)
	fillDuration(&t.FlywheelWait, d.FlywheelWait)
	fillDuration(&t.FlywheelPoll, d.FlywheelPoll)
	fillFloat(&t.FlywheelThreshold, d.FlywheelThreshold)
	fillFloat(&t.ShooterVelocity, d.ShooterVelocity)
	fillDuration(&t.LongArmHold, d.LongArmHold)
	fillFloat(&t.LongArmOutVelocity, d.LongArmOutVelocity)
	fillFloat(&t.LongArmInVelocity, d.LongArmInVelocity)
	return t
}

func fillDuration(v *Duration, def Duration) {
	if *v == 0 {
		*v = def
	}
}

func fillFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}
