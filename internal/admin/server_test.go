package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/metrics"
	"swarmlink-sim/internal/sim"
	"swarmlink-sim/internal/telemetry"
)

type gatedGenerator struct{ release chan struct{} }

func (g *gatedGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	select {
	case <-g.release:
		return "Reroute through the northern relays.", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newTestServer(t *testing.T, opts sim.Options) (*Server, *sim.Simulator, *prometheus.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 7
	cfg.Attacks.ProtectEndpoints = true
	reg := prometheus.NewRegistry()
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(reg)
	}
	s, err := sim.NewSimulator(cfg, opts)
	require.NoError(t, err)
	return NewServer(s, NewHub(), reg), s, reg
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) sim.ActionResult {
	t.Helper()
	var res sim.ActionResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	return res
}

func TestIndexServesCanvas(t *testing.T) {
	srv, _, _ := newTestServer(t, sim.Options{})
	w := do(t, srv.Handler(), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<canvas id="swarm" width="1000" height="600">`)
	assert.Contains(t, body, "swarm-01")
}

func TestStateHandler(t *testing.T) {
	srv, _, _ := newTestServer(t, sim.Options{})
	w := do(t, srv.Handler(), http.MethodGet, "/state")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var st stateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Len(t, st.Frame.Drones, 25)
	assert.Equal(t, 25, st.Summary.Total)
	assert.Equal(t, 25, st.Summary.Healthy)
	assert.False(t, st.Briefing.Pending)
}

func TestAttackHandlers(t *testing.T) {
	srv, s, _ := newTestServer(t, sim.Options{})
	h := srv.Handler()

	res := decodeResult(t, do(t, h, http.MethodPost, "/jam?id=3"))
	assert.True(t, res.Applied)
	assert.Equal(t, 3, res.DroneID)
	assert.Equal(t, 1, res.Counts.Jammed)

	res = decodeResult(t, do(t, h, http.MethodPost, "/jam?id=3"))
	assert.False(t, res.Applied, "re-jam must be a no-op")

	res = decodeResult(t, do(t, h, http.MethodPost, "/hijack?id=abc"))
	assert.False(t, res.Applied)
	assert.Equal(t, -1, res.DroneID)
	assert.Equal(t, telemetry.ActionHijack, res.Action)

	res = decodeResult(t, do(t, h, http.MethodPost, "/hijack?id=0"))
	assert.False(t, res.Applied, "protected endpoint must be ignored")

	res = decodeResult(t, do(t, h, http.MethodPost, "/restore"))
	assert.Equal(t, 1, res.Affected)
	assert.Equal(t, 25, s.Summary().Healthy)

	res = decodeResult(t, do(t, h, http.MethodPost, "/hijack"))
	assert.True(t, res.Applied)
	assert.NotEqual(t, 0, res.DroneID)
	assert.NotEqual(t, 24, res.DroneID)
	assert.Equal(t, 1, s.Summary().Hijacked)

	w := do(t, h, http.MethodGet, "/jam?id=1")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestBriefingHandlers(t *testing.T) {
	gen := &gatedGenerator{release: make(chan struct{})}
	srv, s, _ := newTestServer(t, sim.Options{Advisor: gen})
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/briefing")
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(t, h, http.MethodPost, "/briefing")
	require.Equal(t, http.StatusConflict, w.Code)

	var st advisory.State
	require.NoError(t, json.NewDecoder(do(t, h, http.MethodGet, "/briefing").Body).Decode(&st))
	assert.True(t, st.Pending)

	close(gen.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.AwaitBriefing(ctx)
	require.NoError(t, err)

	require.NoError(t, json.NewDecoder(do(t, h, http.MethodGet, "/briefing").Body).Decode(&st))
	assert.False(t, st.Pending)
	assert.True(t, st.OK)
	assert.Equal(t, "Reroute through the northern relays.", st.Text)

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/briefing").Code, "trigger re-enabled after settle")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, s, _ := newTestServer(t, sim.Options{})
	s.Step(context.Background())
	do(t, srv.Handler(), http.MethodPost, "/jam?id=2")

	w := do(t, srv.Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "swarm_ticks_total 1")
	assert.Contains(t, string(body), `swarm_attack_actions_total{action="jam",applied="true"} 1`)
}

func TestWebSocketStream(t *testing.T) {
	hub := NewHub()
	cfg := config.Default()
	cfg.Seed = 3
	s, err := sim.NewSimulator(cfg, sim.Options{Writer: hub})
	require.NoError(t, err)
	srv := NewServer(s, hub, prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "frame", ev.Type)
	var f telemetry.FrameRow
	require.NoError(t, json.Unmarshal(ev.Payload, &f))
	assert.Equal(t, int64(0), f.Tick)
	assert.Equal(t, 1, hub.Clients())

	s.Step(ctx)
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "frame", ev.Type)
	require.NoError(t, json.Unmarshal(ev.Payload, &f))
	assert.Equal(t, int64(1), f.Tick)

	s.Jam(ctx, sim.TargetID(5))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "attack", ev.Type)
}
