package broadcast

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// ServeConn attaches an upgraded websocket connection to the hub as a
// viewer session on topic and pumps events until either side closes.
// Viewer sessions are write-mostly: the read pump only services control
// frames and detects disconnects.
func ServeConn(hub *Hub, topic string, conn *websocket.Conn, log zerolog.Logger) {
	sess := hub.Subscribe(topic)
	go writePump(hub, sess, conn, log)
	go readPump(hub, sess, conn, log)
}

func readPump(hub *Hub, sess *Session, conn *websocket.Conn, log zerolog.Logger) {
	defer func() {
		hub.Unsubscribe(sess)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Uint64("session_id", sess.ID()).Msg("unexpected websocket close")
			}
			return
		}
	}
}

func writePump(hub *Hub, sess *Session, conn *websocket.Conn, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sess.C():
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// Hub dropped the session.
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Uint64("session_id", sess.ID()).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
