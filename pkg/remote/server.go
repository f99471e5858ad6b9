// Package remote serves the driver station over HTTP: a websocket for
// controller input, a JSON state snapshot and Prometheus metrics.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/bot"
	"github.com/AriaCoder/Axobotl/pkg/control"
)

// Controller is the part of the robot controller the server drives.
type Controller interface {
	Send(ev control.Event) bool
	Snapshot() bot.Snapshot
}

// Frame is one message on the control socket. A frame with Axis set moves
// an axis; otherwise it is a button edge.
type Frame struct {
	Button string  `json:"button,omitempty"`
	Edge   string  `json:"edge,omitempty"`
	Axis   string  `json:"axis,omitempty"`
	Value  float64 `json:"value,omitempty"`
}

// Event converts f to a controller event.
func (f Frame) Event() (control.Event, error) {
	if f.Axis != "" {
		a, err := control.ParseAxis(f.Axis)
		if err != nil {
			return control.Event{}, err
		}
		return control.AxisEvent(a, math.Max(-100, math.Min(100, f.Value))), nil
	}
	b, err := control.ParseButton(f.Button)
	if err != nil {
		return control.Event{}, err
	}
	e, err := control.ParseEdge(f.Edge)
	if err != nil {
		return control.Event{}, err
	}
	return control.ButtonEvent(b, e), nil
}

type errorFrame struct {
	Error string `json:"error"`
}

// Server is the remote driver station.
type Server struct {
	ctl      Controller
	log      zerolog.Logger
	lock     operatorLock
	upgrader websocket.Upgrader
	router   *mux.Router
}

// NewServer returns a server for ctl exposing metrics from gatherer.
func NewServer(ctl Controller, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	s := &Server{
		ctl: ctl,
		log: log.With().Str("component", "remote").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		router: mux.NewRouter(),
	}
	s.router.HandleFunc("/control", s.control)
	s.router.HandleFunc("/state.json", s.state).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("remote driver station listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(s.ctl.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("encode state")
	}
}

// control reads frames from the operator and forwards them as events.
// Buttons still held when the socket closes are released.
func (s *Server) control(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache")
	if err := s.lock.Lock(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	defer s.lock.Unlock()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade websocket")
		return
	}
	defer ws.Close()

	log := s.log.With().Str("operator", r.RemoteAddr).Logger()
	log.Info().Msg("operator connected")

	held := make(map[control.Button]bool)
	defer func() {
		for b := range held {
			s.ctl.Send(control.ButtonEvent(b, control.Release))
		}
		s.ctl.Send(control.AxisEvent(control.AxisA, 0))
		s.ctl.Send(control.AxisEvent(control.AxisD, 0))
		log.Info().Int("released", len(held)).Msg("operator disconnected")
	}()

	for {
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("read control socket")
			}
			return
		}
		ev, err := f.Event()
		if err != nil {
			if err := ws.WriteJSON(errorFrame{Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		if !ev.IsAxis {
			if ev.Edge == control.Press {
				held[ev.Button] = true
			} else {
				delete(held, ev.Button)
			}
		}
		s.ctl.Send(ev)
	}
}
