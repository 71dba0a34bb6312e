package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/internal/advisor"
	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/internal/handeval"
	"github.com/lox/pokerequity/internal/store"
	"github.com/lox/pokerequity/poker"
)

type fakeEstimator struct {
	mu     sync.Mutex
	got    equity.Request
	report *equity.Report
	err    error
	quick  float64
}

func (f *fakeEstimator) Estimate(_ context.Context, req equity.Request) (*equity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = req
	return f.report, f.err
}

func (f *fakeEstimator) QuickEstimate(_ context.Context, req equity.Request) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = req
	return f.quick, f.err
}

func (f *fakeEstimator) request() equity.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

func sampleReport() *equity.Report {
	return &equity.Report{
		ID: uuid.New(),
		Summary: equity.Summary{
			Mean:           0.62,
			StdDev:         0.48,
			Breakeven:      0.71,
			Batches:        2500,
			TrialsPerBatch: 100,
		},
		StakeFraction: 0.125,
		Seed:          9,
		Elapsed:       1500 * time.Millisecond,
	}
}

func newTestServer(t *testing.T, engine Estimator, opts ...Option) http.Handler {
	t.Helper()
	srv, err := New("localhost:0", engine, opts...)
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStaticRoutes(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEstimator{})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello", decode(t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/favicon.ico", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/simulate", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "This is a POST endpoint", decode(t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulate(t *testing.T) {
	t.Parallel()
	engine := &fakeEstimator{report: sampleReport()}
	h := newTestServer(t, engine)

	rec := do(t, h, http.MethodPost, "/api/simulate", `{
		"player_hand": ["Ad", "Kd"],
		"board": ["2c", "7h", "Ts"],
		"stage": 3,
		"risk_tolerance": 0.5,
		"num_opponents": 5,
		"num_batches": 40,
		"seed": 11
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, 0.62, out["win_pct"])
	assert.Equal(t, 0.48, out["sd"])
	assert.Equal(t, 0.71, out["breakeven_pct"])
	assert.Equal(t, 12.5, out["optimal_raise"])
	assert.Equal(t, false, out["partial"])
	assert.Equal(t, float64(2500), out["num_batches"])
	assert.Equal(t, float64(1500), out["elapsed_ms"])

	req := engine.request()
	assert.Equal(t, poker.MustParseCards("Ad Kd"), req.Hole[:])
	assert.Equal(t, poker.MustParseCards("2c 7h Ts"), req.Board)
	assert.Equal(t, 3, req.Stage)
	assert.Equal(t, 5, req.Opponents)
	assert.Equal(t, 0.5, req.Risk)
	assert.Equal(t, 40, req.Batches)
	assert.Zero(t, req.TrialsPerBatch)
	assert.Equal(t, int64(11), req.Seed)
}

func TestSimulateRejectsBadRequests(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEstimator{report: sampleReport()}, WithMaxBatches(100))

	tests := map[string]string{
		"invalid json":        `{"player_hand": [`,
		"missing hand":        `{"num_opponents": 1}`,
		"three hole cards":    `{"player_hand": ["As", "Ks", "Qs"], "num_opponents": 1}`,
		"unknown card":        `{"player_hand": ["Zz", "Ks"], "num_opponents": 1}`,
		"six board cards":     `{"player_hand": ["As", "Ks"], "board": ["2c","3c","4c","5c","6c","7c"], "num_opponents": 1}`,
		"negative opponents":  `{"player_hand": ["As", "Ks"], "num_opponents": -1}`,
		"stage out of range":  `{"player_hand": ["As", "Ks"], "num_opponents": 1, "stage": 9}`,
		"unknown field":       `{"player_hand": ["As", "Ks"], "num_opponents": 1, "pot": 10}`,
		"too many batches":    `{"player_hand": ["As", "Ks"], "num_opponents": 1, "num_batches": 101}`,
		"zero trials":         `{"player_hand": ["As", "Ks"], "num_opponents": 1, "trials_per_batch": 0}`,
		"string opponent num": `{"player_hand": ["As", "Ks"], "num_opponents": "two"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, h, http.MethodPost, "/api/simulate", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["message"])
		})
	}
}

func TestSimulateErrorStatus(t *testing.T) {
	t.Parallel()
	body := `{"player_hand": ["As", "Ks"], "board": null, "num_opponents": 2}`

	tests := []struct {
		name   string
		report *equity.Report
		err    error
		status int
	}{
		{"invalid hand", nil, fmt.Errorf("%w: As appears more than once", equity.ErrInvalidHand), http.StatusBadRequest},
		{"insufficient deck", nil, equity.ErrInsufficientDeck, http.StatusBadRequest},
		{"worker failure", nil, &equity.SimulationError{Batch: 3, Attempts: 2, Err: equity.ErrWorkerFailure}, http.StatusInternalServerError},
		{"nothing completed", nil, equity.ErrDegenerateDistribution, http.StatusInternalServerError},
		{"partial", sampleReport(), &equity.PartialError{Completed: 5, Requested: 10, Cause: equity.ErrDeadlineExceeded}, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newTestServer(t, &fakeEstimator{report: tc.report, err: tc.err})
			rec := do(t, h, http.MethodPost, "/api/simulate", body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestEstimate(t *testing.T) {
	t.Parallel()
	engine := &fakeEstimator{quick: 0.55}
	h := newTestServer(t, engine)

	rec := do(t, h, http.MethodPost, "/api/estimate", `{"player_hand": ["9h", "9d"], "num_opponents": 3, "trials_per_batch": 500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0.55, decode(t, rec)["win_pct"])
	assert.Equal(t, 500, engine.request().TrialsPerBatch)
}

func TestCORS(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, &fakeEstimator{report: sampleReport()}, WithAllowedOrigins("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodOptions, "/api/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodPost, "/api/simulate", strings.NewReader(`{"player_hand": ["As", "Ks"], "num_opponents": 1}`))
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type fakeHistory []store.Estimate

func (f fakeHistory) Recent(_ context.Context, limit int) ([]store.Estimate, error) {
	return f[:min(limit, len(f))], nil
}

func TestHistory(t *testing.T) {
	t.Parallel()
	history := fakeHistory{
		{ID: uuid.New(), Hole: "As Ks", Opponents: 1, WinRate: 0.67},
		{ID: uuid.New(), Hole: "7c 2d", Opponents: 4, WinRate: 0.08},
	}
	h := newTestServer(t, &fakeEstimator{}, WithHistory(history))

	rec := do(t, h, http.MethodGet, "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []store.Estimate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "As Ks", got[0].Hole)

	rec = do(t, h, http.MethodGet, "/api/history?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func realEngine() *equity.Engine {
	orch := equity.NewOrchestrator(equity.NewRunner(handeval.Native{}), equity.WithConcurrency(2))
	return equity.NewEngine(orch, advisor.Static(0.25))
}

func TestSimulateWithEngine(t *testing.T) {
	t.Parallel()
	h := newTestServer(t, realEngine())

	body := `{"player_hand": ["As", "Ks"], "num_opponents": 1, "trials_per_batch": 50, "num_batches": 20, "seed": 7}`
	rec := do(t, h, http.MethodPost, "/api/simulate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res SimulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.GreaterOrEqual(t, res.WinPct, 0.0)
	assert.LessOrEqual(t, res.WinPct, 1.0)
	assert.GreaterOrEqual(t, res.BreakevenPct, 0.0)
	assert.LessOrEqual(t, res.BreakevenPct, 1.0)
	assert.Equal(t, 25.0, res.OptimalRaise)
	assert.Equal(t, 20, res.NumBatches)
	assert.Equal(t, 50, res.TrialsPerBatch)
	assert.Equal(t, int64(7), res.Seed)
	assert.False(t, res.Partial)

	rec = do(t, h, http.MethodPost, "/api/simulate", `{"player_hand": ["As", "Ks"], "board": ["As", "2c", "3d"], "num_opponents": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/simulate", `{"player_hand": ["As", "Ks"], "num_opponents": 30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func dialStream(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/simulate/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStream(t *testing.T) {
	t.Parallel()
	conn := dialStream(t, newTestServer(t, realEngine()))

	body := []byte(`{"player_hand": ["Qh", "Qd"], "num_opponents": 2, "trials_per_batch": 20, "num_batches": 10, "seed": 3}`)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))

	var progress []StreamMessage
	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "progress" {
			progress = append(progress, msg)
			continue
		}
		require.Equal(t, "result", msg.Type, msg.Message)
		require.NotNil(t, msg.Result)
		assert.Equal(t, 10, msg.Result.NumBatches)
		break
	}

	require.Len(t, progress, 10)
	for i, p := range progress {
		assert.Equal(t, i+1, p.Completed)
		assert.Equal(t, 10, p.Requested)
	}
}

func TestStreamRejectsBadRequest(t *testing.T) {
	t.Parallel()
	conn := dialStream(t, newTestServer(t, realEngine()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"player_hand": ["As"]}`)))
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Message)
}

func TestValidator(t *testing.T) {
	t.Parallel()
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate("simulate", []byte(`{"player_hand": ["as", "KS"], "num_opponents": 0}`)))
	assert.Error(t, v.Validate("simulate", []byte(`{"player_hand": ["As", "Ks"]}`)))
	assert.Error(t, v.Validate("missing", []byte(`{}`)))
	assert.Error(t, v.Validate("simulate", bytes.Repeat([]byte("{"), 3)))
}
