package robot

import "testing"

func TestHealthColor(t *testing.T) {
	tests := []struct {
		capacity float64
		expected Color
	}{
		{100, Green},
		{86, Green},
		{85, Green}, // boundary goes to the higher tier
		{80, Blue},
		{75, Blue},
		{70, Orange},
		{60, Orange},
		{59.9, Red},
		{40, Red},
		{0, Red},
	}

	for _, tt := range tests {
		got := HealthColor(tt.capacity)
		if got != tt.expected {
			t.Errorf("HealthColor(%v) = %s, want %s", tt.capacity, got, tt.expected)
		}
	}
}
