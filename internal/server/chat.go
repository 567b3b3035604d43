package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/flows"
	"github.com/ziadkadry99/krishi-mitra/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "message"
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type    string             `json:"type"` // "response" or "error"
	Content string             `json:"content"`
	Kind    pipeline.ErrorKind `json:"kind,omitempty"`
}

// handleChat runs the general-chat flow once per message. Failures are sent
// back on the socket and the connection stays open.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, chatResponse{Type: "error", Content: "invalid message format", Kind: pipeline.KindValidation})
			continue
		}
		if req.Type != "" && req.Type != "message" {
			s.send(conn, chatResponse{Type: "error", Content: "unknown message type: " + req.Type, Kind: pipeline.KindValidation})
			continue
		}
		if req.Content == "" {
			s.send(conn, chatResponse{Type: "error", Content: "content is required", Kind: pipeline.KindValidation})
			continue
		}

		res, err := s.invoke(r.Context(), flows.GeneralChat, map[string]any{"prompt": req.Content})
		if err != nil {
			s.send(conn, chatResponse{Type: "error", Content: err.Error(), Kind: pipeline.KindOf(err)})
			continue
		}
		text, _ := res.Output["response"].(string)
		s.send(conn, chatResponse{Type: "response", Content: text})
	}
}

func (s *Server) send(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write", zap.Error(err))
	}
}
