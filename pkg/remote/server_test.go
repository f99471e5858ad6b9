package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriaCoder/Axobotl/pkg/bot"
	"github.com/AriaCoder/Axobotl/pkg/control"
)

type fakeController struct {
	mu     sync.Mutex
	events []control.Event
	snap   bot.Snapshot
}

func (f *fakeController) Send(ev control.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return true
}

func (f *fakeController) Snapshot() bot.Snapshot { return f.snap }

func (f *fakeController) Events() []control.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]control.Event(nil), f.events...)
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeController, *prometheus.Registry) {
	t.Helper()
	ctl := &fakeController{}
	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(NewServer(ctl, reg, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, ctl, reg
}

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/control", nil)
}

func TestFrame_Event(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		want    control.Event
		wantErr bool
	}{
		{"press", Frame{Button: "EUp", Edge: "press"}, control.ButtonEvent(control.EUp, control.Press), false},
		{"release", Frame{Button: "rup", Edge: "release"}, control.ButtonEvent(control.RUp, control.Release), false},
		{"axis", Frame{Axis: "A", Value: 55}, control.AxisEvent(control.AxisA, 55), false},
		{"axis clamped", Frame{Axis: "d", Value: -250}, control.AxisEvent(control.AxisD, -100), false},
		{"bad button", Frame{Button: "X", Edge: "press"}, control.Event{}, true},
		{"bad edge", Frame{Button: "EUp", Edge: "hold"}, control.Event{}, true},
		{"bad axis", Frame{Axis: "Z"}, control.Event{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.frame.Event()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServer_State(t *testing.T) {
	srv, ctl, _ := newTestServer(t)
	ctl.snap = bot.Snapshot{Battery: 77, State: control.State{Mode: control.AutoFar, AutoReady: true}}

	resp, err := http.Get(srv.URL + "/state.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 77.0, got["battery"])
	state := got["state"].(map[string]any)
	assert.Equal(t, "auto-far", state["mode"])
	assert.Equal(t, true, state["auto_ready"])
}

func TestServer_Metrics(t *testing.T) {
	srv, _, reg := newTestServer(t)
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "axobotl_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "axobotl_test_total 1")
}

func TestServer_Control(t *testing.T) {
	srv, ctl, _ := newTestServer(t)

	ws, _, err := dial(t, srv)
	require.NoError(t, err)

	require.NoError(t, ws.WriteJSON(Frame{Button: "EUp", Edge: "press"}))
	require.NoError(t, ws.WriteJSON(Frame{Axis: "A", Value: 40}))
	require.NoError(t, ws.WriteJSON(Frame{Button: "Nope", Edge: "press"}))

	var ef errorFrame
	require.NoError(t, ws.ReadJSON(&ef))
	assert.Contains(t, ef.Error, "unknown button")

	// a second operator is turned away
	_, resp, err := dial(t, srv)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, ws.Close())

	// held buttons and axes are released on disconnect
	require.Eventually(t, func() bool { return len(ctl.Events()) == 5 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []control.Event{
		control.ButtonEvent(control.EUp, control.Press),
		control.AxisEvent(control.AxisA, 40),
		control.ButtonEvent(control.EUp, control.Release),
		control.AxisEvent(control.AxisA, 0),
		control.AxisEvent(control.AxisD, 0),
	}, ctl.Events())

	// the lock is free again
	require.Eventually(t, func() bool {
		ws2, _, err := dial(t, srv)
		if err != nil {
			return false
		}
		ws2.Close()
		return true
	}, time.Second, 10*time.Millisecond)
}
