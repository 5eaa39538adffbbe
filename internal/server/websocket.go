package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hyperjump/shindan/internal/advisor"
	"github.com/hyperjump/shindan/internal/models"
)

const (
	socketWriteWait = 10 * time.Second
	socketIdle      = 5 * time.Minute
)

// handleChatSocket answers each inbound {message} frame with one chat reply frame.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	ip, ua := clientIP(r), r.UserAgent()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(socketIdle))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		var req models.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if s.writeFrame(conn, map[string]interface{}{"success": false, "message": "Invalid JSON data"}) != nil {
				return
			}
			continue
		}

		var frame interface{}
		reply, err := s.advisor.Chat(r.Context(), advisor.ChatInput{
			Message:   req.Message,
			SessionID: req.SessionID,
			IPAddress: ip,
			UserAgent: ua,
		})
		if err != nil {
			frame = map[string]interface{}{"success": false, "message": advisor.UserMessage(err)}
		} else {
			frame = reply
		}
		if err := s.writeFrame(conn, frame); err != nil {
			s.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return conn.WriteJSON(v)
}
