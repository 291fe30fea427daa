package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/logging"
	"swarmlink-sim/internal/sim"
	"swarmlink-sim/internal/telemetry"
)

//go:embed templates/index.html
var content embed.FS

// Server exposes the simulator over HTTP: a browser canvas, JSON controls, a
// websocket frame stream and Prometheus metrics.
type Server struct {
	Sim      *sim.Simulator
	Hub      *Hub
	tpl      *template.Template
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
}

// NewServer wires the routes. A nil gatherer serves the default registry.
func NewServer(s *sim.Simulator, hub *Hub, gatherer prometheus.Gatherer) *Server {
	if hub == nil {
		hub = NewHub()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	srv := &Server{Sim: s, Hub: hub, tpl: tpl, gatherer: gatherer, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /state", s.handleState)
	s.mux.HandleFunc("POST /jam", s.handleAttack(telemetry.ActionJam))
	s.mux.HandleFunc("POST /hijack", s.handleAttack(telemetry.ActionHijack))
	s.mux.HandleFunc("POST /restore", s.handleRestore)
	s.mux.HandleFunc("POST /briefing", s.handleRequestBriefing)
	s.mux.HandleFunc("GET /briefing", s.handleBriefing)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is done. Request contexts inherit ctx so
// handlers log through its logger.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go s.Hub.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()
	logging.FromContext(ctx).Info("admin server listening", "addr", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type stateResponse struct {
	Frame    telemetry.FrameRow `json:"frame"`
	Summary  advisory.Summary   `json:"summary"`
	Briefing advisory.State     `json:"briefing"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg := s.Sim.Config()
	data := struct {
		ClusterID string
		Width     float64
		Height    float64
		Drones    int
	}{
		ClusterID: cfg.ClusterID,
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		Drones:    cfg.Swarm.DroneCount,
	}
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index failed", "err", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, stateResponse{
		Frame:    s.Sim.Snapshot(),
		Summary:  s.Sim.Summary(),
		Briefing: s.Sim.Briefing(),
	})
}

// handleAttack runs jam or hijack for ?id=. An empty id lets the simulator
// pick; a non-numeric id is answered with a no-op result.
func (s *Server) handleAttack(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		t, err := sim.ParseTarget(r.URL.Query().Get("id"))
		if err != nil {
			logging.FromContext(ctx).Debug("attack ignored", "action", action, "err", err)
			writeJSON(ctx, w, http.StatusOK, sim.ActionResult{
				Action:  action,
				DroneID: -1,
				Counts:  s.Sim.Snapshot().Counts(),
			})
			return
		}
		var res sim.ActionResult
		if action == telemetry.ActionHijack {
			res = s.Sim.Hijack(ctx, t)
		} else {
			res = s.Sim.Jam(ctx, t)
		}
		writeJSON(ctx, w, http.StatusOK, res)
	}
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.Sim.RestoreAll(r.Context()))
}

func (s *Server) handleRequestBriefing(w http.ResponseWriter, r *http.Request) {
	err := s.Sim.RequestBriefing(r.Context())
	status := http.StatusAccepted
	if errors.Is(err, advisory.ErrPending) {
		status = http.StatusConflict
	}
	writeJSON(r.Context(), w, status, s.Sim.Briefing())
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.Sim.Briefing())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "err", err)
		return
	}
	defer func() {
		s.Hub.unregister(conn)
		conn.Close()
	}()
	if err := s.Hub.register(conn, Event{Type: "frame", Payload: s.Sim.Snapshot()}); err != nil {
		log.Debug("websocket initial frame failed", "err", err)
		return
	}

	// the stream is one-way; reading detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(ctx).Error("encode response failed", "err", err)
	}
}
