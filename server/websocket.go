package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"sechub/pkg/clients"
	"sechub/pkg/errors"
	"sechub/pkg/protocol"
	"sechub/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients connect cross-origin from dashboards
	},
}

func (s *Server) ginHandleWebSocket(c *gin.Context) {
	s.handleWebSocket(c.Writer, c.Request)
}

// handleWebSocket accepts a connection, pushes the version banner before
// anything else, and starts the session's read and write pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := clients.NewClient(generateSessionID(), s.cfg.Limits.SendQueueSize)
	s.registry.Add(client)
	s.metrics.SessionsActive.Inc()
	s.log.Info("session connected", "client", client.ID(), "remote", r.RemoteAddr)

	if s.store != nil {
		err := s.store.SaveSession(&storage.Session{
			ID:          client.ID(),
			RemoteAddr:  r.RemoteAddr,
			ConnectedAt: time.Now(),
		})
		if err != nil {
			s.log.Debug("failed to persist session", "client", client.ID(), "error", err)
		}
	}

	// The banner must be the first frame the client sees.
	client.SendRaw(protocol.NewVersionMessage(s.drv.Version(), serverVersion))

	go s.writePump(client, conn)
	go s.readPump(client, conn)
}

// readPump consumes command frames until the transport closes. Each
// command dispatches on its own goroutine so one slow driver call never
// stalls the session's other commands or any other session.
func (s *Server) readPump(client *clients.Client, conn *websocket.Conn) {
	defer s.disconnect(client, conn)

	limiter := rate.NewLimiter(rate.Limit(s.cfg.Limits.CommandsPerSecond), s.cfg.Limits.CommandBurst)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Debug("websocket read error", "client", client.ID(), "error", err)
			}
			return
		}

		if !limiter.Allow() {
			client.SendError("", errors.Codef(errors.CodeRateLimited, "command rate limit exceeded"))
			continue
		}

		go s.dispatcher.Dispatch(context.Background(), client, data)
	}
}

// writePump drains the session's outbound queue onto the socket and keeps
// the connection alive with pings. It owns all writes to the socket.
func (s *Server) writePump(client *clients.Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Outbound():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// disconnect tears a session down: excluded from audiences first, then
// forgotten and stamped in the store.
func (s *Server) disconnect(client *clients.Client, conn *websocket.Conn) {
	client.MarkDisconnected()
	conn.Close()
	s.registry.Remove(client.ID())
	s.metrics.SessionsActive.Dec()

	if s.store != nil {
		if err := s.store.CloseSession(client.ID(), time.Now()); err != nil {
			s.log.Debug("failed to stamp session close", "client", client.ID(), "error", err)
		}
	}
	s.log.Info("session disconnected", "client", client.ID())
}

// generateSessionID returns a random 16-byte hex session identifier.
func generateSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:32]
	}
	return hex.EncodeToString(buf)
}
