package robot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func spinningServo(velocity float64, dir Direction, inverted bool) *ServoActuator {
	return &ServoActuator{
		cal:      ServoCalibration{ID: 1, Inverted: inverted, RangeMin: 0, RangeMax: 4095},
		velocity: velocity,
		spinning: true,
		dir:      dir,
		goal:     2000,
	}
}

func TestServoActuator_AdvanceIsSymmetric(t *testing.T) {
	tests := []struct {
		name     string
		velocity float64
		dir      Direction
		inverted bool
		want     float64
	}{
		{"1% forward", 1, Forward, false, 34},
		{"1% reverse", 1, Reverse, false, -34},
		{"1.5% forward", 1.5, Forward, false, 51},
		{"10% forward", 10, Forward, false, 340},
		{"10% reverse", 10, Reverse, false, -340},
		{"10% forward inverted", 10, Forward, true, -340},
		{"10% reverse inverted", 10, Reverse, true, 340},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := spinningServo(tt.velocity, tt.dir, tt.inverted)
			for range 60 {
				a.advance(time.Second / 60)
			}
			assert.InDelta(t, tt.want, a.goal-2000, 1e-6)
		})
	}
}

func TestServoActuator_AdvanceClampsToRange(t *testing.T) {
	a := spinningServo(100, Forward, false)
	for range 60 {
		a.advance(time.Second / 60)
	}
	assert.Equal(t, 4095.0, a.goal)

	a.dir = Reverse
	for range 120 {
		a.advance(time.Second / 60)
	}
	assert.Equal(t, 0.0, a.goal)
}

func TestServoActuator_AdvanceIdleWhenStopped(t *testing.T) {
	a := spinningServo(50, Forward, false)
	a.spinning = false
	a.advance(time.Second)
	assert.Equal(t, 2000.0, a.goal)
}

func TestServoActuator_VelocityIsMagnitude(t *testing.T) {
	tests := []struct {
		name     string
		to       int
		inverted bool
	}{
		{"moving up", 2034, false},
		{"moving down", 1966, false},
		{"moving down inverted", 1966, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ServoActuator{cal: ServoCalibration{Inverted: tt.inverted, RangeMax: 4095}, pos: 2000}
			a.observe(tt.to, time.Second)
			assert.InDelta(t, 1.0, a.measured, 1e-9)
			assert.Equal(t, tt.to, a.pos)
		})
	}
}
