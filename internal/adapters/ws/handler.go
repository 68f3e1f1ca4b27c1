package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/okian/pitchlab/internal/domain/session"
	"github.com/okian/pitchlab/pkg/logger"
)

const defaultWriteTimeout = 5 * time.Second

// SnapshotSource looks up the current snapshot of a session.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id string) (session.Snapshot, error)
}

type handler struct {
	hub          *Hub
	src          SnapshotSource
	writeTimeout time.Duration
	origins      []string
}

// Handler serves GET /sessions/{id}/stream. The viewer receives the current
// snapshot first and then every published one until the session is
// analysed or the viewer disconnects. Incoming frames are discarded.
func (h *Hub) Handler(src SnapshotSource, opts ...HandlerOption) http.Handler {
	s := &handler{hub: h, src: src, writeTimeout: defaultWriteTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.src.Snapshot(r.Context(), id); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.hub.logger.Warn(r.Context(), "websocket accept failed", logger.String("session", id), logger.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	client := NewClient(id, s.hub.buffer)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	// Registered before the first read so no published frame falls between.
	snap, err := s.src.Snapshot(ctx, id)
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "session removed")
		return
	}
	if err := s.writeSnapshot(ctx, conn, snap); err != nil {
		return
	}
	if snap.Status == session.StatusAnalyzed {
		conn.Close(websocket.StatusNormalClosure, "session analysed")
		return
	}

	s.hub.logger.Debug(ctx, "stream viewer joined", logger.String("session", id))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.Send:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session analysed")
				return
			}
			if err := s.write(ctx, conn, msg); err != nil {
				return
			}
		}
	}
}

func (s *handler) writeSnapshot(ctx context.Context, conn *websocket.Conn, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.write(ctx, conn, data)
}

func (s *handler) write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
