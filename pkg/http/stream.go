package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/temporal"
)

// StreamMessage is what the server writes on a chart stream
type StreamMessage struct {
	Type  string      `json:"type"` // "view" or "error"
	View  *chart.View `json:"view,omitempty"`
	Error string      `json:"error,omitempty"`
}

// handleStream upgrades to a websocket that accepts Input messages and
// answers each with the resulting view
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "chartID", chartID, "error", err)
		return
	}
	defer conn.Close()

	s.metrics.StreamClients.Inc()
	defer s.metrics.StreamClients.Dec()
	s.logger.Info("Stream client connected", "chartID", chartID)

	conn.SetReadLimit(maxStreamMessage)
	ctx := r.Context()

	if err := s.pushView(ctx, conn, chartID); err != nil {
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))

		var in temporal.Input
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Stream closed unexpectedly", "chartID", chartID, "error", err)
			}
			s.logger.Info("Stream client disconnected", "chartID", chartID)
			return
		}

		if !in.Kind.Valid() {
			if err := conn.WriteJSON(StreamMessage{Type: "error", Error: "unknown input kind " + string(in.Kind)}); err != nil {
				return
			}
			continue
		}
		if err := s.signal(ctx, chartID, in); err != nil {
			s.logger.Error("Failed to signal session", "chartID", chartID, "kind", in.Kind, "error", err)
			if err := conn.WriteJSON(StreamMessage{Type: "error", Error: "failed to deliver input"}); err != nil {
				return
			}
			continue
		}
		if in.Kind == temporal.InputClose {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return
		}
		if err := s.pushView(ctx, conn, chartID); err != nil {
			return
		}
	}
}

// pushView renders the chart and writes it to conn. Only write failures are
// returned; render failures are reported to the client.
func (s *Server) pushView(ctx context.Context, conn *websocket.Conn, chartID string) error {
	msg := StreamMessage{Type: "view"}
	view, err := s.sessions.Render(ctx, chartID)
	if err != nil {
		s.logger.Error("Failed to render chart", "chartID", chartID, "error", err)
		msg = StreamMessage{Type: "error", Error: "failed to render chart"}
	} else {
		s.metrics.Renders.Inc()
		msg.View = &view
	}
	return conn.WriteJSON(msg)
}
