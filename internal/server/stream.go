package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lox/pokerequity/internal/equity"
)

const writeWait = 10 * time.Second

// StreamMessage is sent to WebSocket clients of /api/simulate/stream.
// Type is "progress", "result" or "error".
type StreamMessage struct {
	Type      string            `json:"type"`
	Completed int               `json:"completed,omitempty"`
	Requested int               `json:"requested,omitempty"`
	Result    *SimulateResponse `json:"result,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// handleStream runs one simulation per connection. The client sends a single
// SimulateRequest and receives progress messages followed by a result or an
// error. Closing the connection cancels the simulation.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxBodyBytes)

	_, body, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debug().Err(err).Msg("Stream closed before request")
		return
	}

	send := func(msg StreamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	req, err := s.parseRequest(body)
	if err != nil {
		_ = send(StreamMessage{Type: "error", Message: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Any further read, including a close frame, ends the run.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	step := 1
	req.Progress = func(completed, requested int) {
		if step == 1 && requested > 100 {
			step = requested / 100
		}
		if completed%step != 0 && completed != requested {
			return
		}
		if err := send(StreamMessage{Type: "progress", Completed: completed, Requested: requested}); err != nil {
			cancel()
		}
	}

	rep, err := s.engine.Estimate(ctx, req)
	var partial *equity.PartialError
	if err != nil && !errors.As(err, &partial) {
		_ = send(StreamMessage{Type: "error", Message: err.Error()})
		return
	}
	res := SimulateResponseFrom(rep)
	if err := send(StreamMessage{Type: "result", Result: &res}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
