package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gilestrolab/ethosensor/internal/logging"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Readings are not secrets; the LAN is the trust boundary.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveReading is the document pushed to /live subscribers.
type liveReading struct {
	ID          string  `json:"id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Light       uint32  `json:"light"`
	Fresh       bool    `json:"fresh"`
	Timestamp   string  `json:"timestamp"`
}

// handleLive upgrades the connection and pushes the current reading every
// StreamInterval until the client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	logging.Info("Live stream subscriber connected", zap.String("remote", r.RemoteAddr))

	// The read pump only exists to notice the client closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	if err := s.pushReading(conn); err != nil {
		return
	}

	for {
		select {
		case <-done:
			logging.Info("Live stream subscriber disconnected", zap.String("remote", r.RemoteAddr))
			return
		case <-ticker.C:
			if err := s.pushReading(conn); err != nil {
				logging.Debug("Live stream write failed",
					zap.String("remote", r.RemoteAddr),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (s *Server) pushReading(conn *websocket.Conn) error {
	env, ok := s.poller.Snapshot()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(liveReading{
		ID:          s.config.ID,
		Temperature: env.Temperature,
		Humidity:    env.Humidity,
		Pressure:    env.Pressure,
		Light:       env.Light,
		Fresh:       ok,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
