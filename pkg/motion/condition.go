package motion

import "github.com/AriaCoder/Axobotl/pkg/robot"

// Condition reports whether a motion should stop. It is evaluated once per
// poll and never cached between polls.
type Condition func() bool

// Any stops when any of conds is true.
func Any(conds ...Condition) Condition {
	return func() bool {
		for _, c := range conds {
			if c() {
				return true
			}
		}
		return false
	}
}

// Not inverts c.
func Not(c Condition) Condition {
	return func() bool { return !c() }
}

// Active is true while s is pressed.
func Active(s robot.DigitalSensor) Condition {
	return s.IsActive
}

// Flag reads a boolean through a pointer on every evaluation.
func Flag(b *bool) Condition {
	return func() bool { return *b }
}

// Never is a condition that is never met.
func Never() bool { return false }
