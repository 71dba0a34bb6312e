package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/poker"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

// SimulateRequest is the JSON body accepted by /api/simulate, /api/estimate
// and the stream endpoint.
type SimulateRequest struct {
	PlayerHand     []string `json:"player_hand"`
	Board          []string `json:"board"`
	Stage          int      `json:"stage"`
	RiskTolerance  float64  `json:"risk_tolerance"`
	NumOpponents   int      `json:"num_opponents"`
	TrialsPerBatch int      `json:"trials_per_batch,omitempty"`
	NumBatches     int      `json:"num_batches,omitempty"`
	Seed           int64    `json:"seed,omitempty"`
}

// SimulateResponse is the result of a simulation. Rates are fractions in
// [0,1]; optimal_raise is a percentage of the stake.
type SimulateResponse struct {
	ID             string  `json:"id"`
	WinPct         float64 `json:"win_pct"`
	SD             float64 `json:"sd"`
	BreakevenPct   float64 `json:"breakeven_pct"`
	OptimalRaise   float64 `json:"optimal_raise"`
	Partial        bool    `json:"partial"`
	NumBatches     int     `json:"num_batches"`
	TrialsPerBatch int     `json:"trials_per_batch"`
	Seed           int64   `json:"seed"`
	ElapsedMS      int64   `json:"elapsed_ms"`
}

// SimulateResponseFrom converts an engine report to its JSON form.
func SimulateResponseFrom(rep *equity.Report) SimulateResponse {
	return SimulateResponse{
		ID:             rep.ID.String(),
		WinPct:         rep.Mean,
		SD:             rep.StdDev,
		BreakevenPct:   rep.Breakeven,
		OptimalRaise:   rep.StakeFraction * 100,
		Partial:        rep.Partial,
		NumBatches:     rep.Batches,
		TrialsPerBatch: rep.TrialsPerBatch,
		Seed:           rep.Seed,
		ElapsedMS:      rep.Elapsed.Milliseconds(),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Hello"})
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

func (s *Server) handleSimulateInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "This is a POST endpoint"})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rep, err := s.engine.Estimate(r.Context(), req)
	var partial *equity.PartialError
	if err != nil && !errors.As(err, &partial) {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SimulateResponseFrom(rep))
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, err := s.readRequest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	mean, err := s.engine.QuickEstimate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"win_pct": mean})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, fmt.Errorf("%w: limit must be between 1 and 500", errBadRequest))
			return
		}
		limit = n
	}

	estimates, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimates)
}

func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (equity.Request, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return equity.Request{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return s.parseRequest(body)
}

// parseRequest validates body against the simulate schema and converts it to
// an engine request.
func (s *Server) parseRequest(body []byte) (equity.Request, error) {
	if err := s.validator.Validate("simulate", body); err != nil {
		return equity.Request{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	var in SimulateRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return equity.Request{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if in.NumBatches > s.maxBatches {
		return equity.Request{}, fmt.Errorf("%w: num_batches %d exceeds the limit of %d", errBadRequest, in.NumBatches, s.maxBatches)
	}

	hole, err := parseCards(in.PlayerHand)
	if err != nil {
		return equity.Request{}, err
	}
	board, err := parseCards(in.Board)
	if err != nil {
		return equity.Request{}, err
	}
	return equity.Request{
		Spot: equity.Spot{
			Hole:      [2]poker.Card{hole[0], hole[1]},
			Board:     board,
			Opponents: in.NumOpponents,
			Stage:     in.Stage,
		},
		Risk:           in.RiskTolerance,
		TrialsPerBatch: in.TrialsPerBatch,
		Batches:        in.NumBatches,
		Seed:           in.Seed,
	}, nil
}

func parseCards(in []string) ([]poker.Card, error) {
	cards := make([]poker.Card, 0, len(in))
	for _, s := range in {
		c, err := poker.ParseCard(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, equity.ErrInvalidHand),
		errors.Is(err, equity.ErrInsufficientDeck),
		errors.Is(err, equity.ErrInvalidJob):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, messageResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
