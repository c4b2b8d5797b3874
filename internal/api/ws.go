package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// handleWebSocket prices every text frame received on the connection. Each
// reply is either a PredictResponse or an ErrorResponse.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(1 << 20)

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()
	if s.opts.Recorder != nil {
		s.opts.Recorder.WSSessionsAdd(1)
	}
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		if s.opts.Recorder != nil {
			s.opts.Recorder.WSSessionsAdd(-1)
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("websocket session ended unexpectedly")
			}
			return
		}

		var reply any
		if msgType != websocket.TextMessage {
			reply = ErrorResponse{Error: "expected a text frame containing JSON"}
		} else {
			_, reply = s.predict(data)
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Error().Err(err).Msg("failed to write websocket reply")
			return
		}
	}
}
