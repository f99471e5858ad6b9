// Package metrics records controller activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AriaCoder/Axobotl/pkg/auto"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/motion"
)

const namespace = "axobotl"

// Recorder implements the motion, control and auto observer interfaces.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	handlersTotal   *prometheus.CounterVec
	routinesTotal   *prometheus.CounterVec
	routineSteps    *prometheus.HistogramVec
	batteryCapacity prometheus.Gauge
	velocity        *prometheus.GaugeVec
}

var (
	_ motion.Observer         = (*Recorder)(nil)
	_ control.HandlerObserver = (*Recorder)(nil)
	_ auto.Observer           = (*Recorder)(nil)
)

// NewRecorder registers the metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bounded_runs_total",
				Help:      "Bounded motions and waits by name and outcome",
			},
			[]string{"run", "outcome"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bounded_run_duration_seconds",
				Help:      "Duration of bounded motions and waits",
				Buckets:   []float64{0.02, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 4, 5},
			},
			[]string{"run"},
		),
		handlersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "button_handlers_total",
				Help:      "Button handler invocations by button and edge",
			},
			[]string{"button", "edge"},
		),
		routinesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "autonomous_routines_total",
				Help:      "Finished autonomous routines by routine and phase",
			},
			[]string{"routine", "phase"},
		),
		routineSteps: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "autonomous_steps",
				Help:      "Steps executed per autonomous routine",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
			[]string{"routine"},
		),
		batteryCapacity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_capacity_percent",
			Help:      "Remaining battery capacity",
		}),
		velocity: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "actuator_velocity_percent",
				Help:      "Measured actuator velocity",
			},
			[]string{"actuator"},
		),
	}
}

// ObserveRun records a finished bounded run.
func (r *Recorder) ObserveRun(name string, res motion.Result) {
	r.runsTotal.WithLabelValues(name, res.Outcome.String()).Inc()
	r.runDuration.WithLabelValues(name).Observe(res.Elapsed.Seconds())
}

// ObserveHandler records a button handler invocation.
func (r *Recorder) ObserveHandler(b control.Button, e control.Edge) {
	r.handlersTotal.WithLabelValues(b.String(), e.String()).Inc()
}

// ObserveRoutine records a finished autonomous routine.
func (r *Recorder) ObserveRoutine(rep auto.Report) {
	r.routinesTotal.WithLabelValues(rep.Routine, rep.Phase.String()).Inc()
	r.routineSteps.WithLabelValues(rep.Routine).Observe(float64(rep.Steps))
}

// SetBattery sets the battery gauge.
func (r *Recorder) SetBattery(capacity float64) { r.batteryCapacity.Set(capacity) }

// SetVelocity sets an actuator's velocity gauge.
func (r *Recorder) SetVelocity(actuator string, pct float64) {
	r.velocity.WithLabelValues(actuator).Set(pct)
}
