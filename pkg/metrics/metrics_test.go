package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriaCoder/Axobotl/pkg/auto"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/motion"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveRun("rock_up", motion.Result{Outcome: motion.Satisfied, Elapsed: 260 * time.Millisecond})
	r.ObserveRun("rock_up", motion.Result{Outcome: motion.TimedOut, Elapsed: 3 * time.Second})
	r.ObserveRun("flywheel", motion.Result{Outcome: motion.TimedOut, Elapsed: 2 * time.Second})
	r.ObserveHandler(control.EUp, control.Press)
	r.ObserveHandler(control.EUp, control.Press)
	r.ObserveRoutine(auto.Report{Routine: "auto-near", Phase: auto.Aborted, Steps: 2})
	r.SetBattery(72.5)
	r.SetVelocity("shooter", 88)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("rock_up", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("rock_up", "satisfied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.handlersTotal.WithLabelValues("EUp", "press")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.routinesTotal.WithLabelValues("auto-near", "aborted")))
	assert.Equal(t, 72.5, testutil.ToFloat64(r.batteryCapacity))
	assert.Equal(t, 88.0, testutil.ToFloat64(r.velocity.WithLabelValues("shooter")))

	expected := `
# HELP axobotl_bounded_runs_total Bounded motions and waits by name and outcome
# TYPE axobotl_bounded_runs_total counter
axobotl_bounded_runs_total{outcome="satisfied",run="rock_up"} 1
axobotl_bounded_runs_total{outcome="timeout",run="flywheel"} 1
axobotl_bounded_runs_total{outcome="timeout",run="rock_up"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "axobotl_bounded_runs_total"))
}
