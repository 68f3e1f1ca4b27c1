package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/okian/pitchlab/internal/domain/session"
)

func snap(id string, status session.Status, elapsed float64) session.Snapshot {
	return session.Snapshot{SessionID: id, Status: status, ElapsedSec: elapsed}
}

func TestPublishReachesOnlyItsSession(t *testing.T) {
	h := NewHub()

	a := NewClient("S-a", 4)
	b := NewClient("S-b", 4)
	h.Register(a)
	h.Register(b)

	h.Publish(snap("S-a", session.StatusRunning, 1.5))

	select {
	case data := <-a.Send:
		var got session.Snapshot
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.SessionID != "S-a" || got.ElapsedSec != 1.5 {
			t.Fatalf("unexpected snapshot: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("a did not receive the snapshot")
	}

	select {
	case <-b.Send:
		t.Fatal("b should not receive another session's snapshot")
	default:
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub()
	c := NewClient("S-1", 1)
	h.Register(c)

	h.Publish(snap("S-1", session.StatusRunning, 0.05))
	// Must not block.
	h.Publish(snap("S-1", session.StatusRunning, 0.10))

	var got session.Snapshot
	if err := json.Unmarshal(<-c.Send, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ElapsedSec != 0.05 {
		t.Fatalf("expected the first frame, got %+v", got)
	}
	select {
	case <-c.Send:
		t.Fatal("second frame should have been dropped")
	default:
	}
}

func TestAnalysedSnapshotReleasesViewers(t *testing.T) {
	h := NewHub()
	c := NewClient("S-1", 4)
	h.Register(c)

	h.Publish(snap("S-1", session.StatusAnalyzed, 10))

	if _, ok := <-c.Send; !ok {
		t.Fatal("final frame should be delivered before close")
	}
	if _, ok := <-c.Send; ok {
		t.Fatal("send queue should be closed")
	}
	if n := h.Clients("S-1"); n != 0 {
		t.Fatalf("expected no viewers, got %d", n)
	}

	// Releasing twice must not panic.
	h.Unregister(c)
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	h.Unregister(NewClient("S-none", 1))
}

type fakeSource struct {
	snaps map[string]session.Snapshot
}

func (f fakeSource) Snapshot(_ context.Context, id string) (session.Snapshot, error) {
	s, ok := f.snaps[id]
	if !ok {
		return session.Snapshot{}, errors.New("not found")
	}
	return s, nil
}

func newStreamServer(t *testing.T, h *Hub, src SnapshotSource) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /sessions/{id}/stream", h.Handler(src))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func readSnapshot(ctx context.Context, t *testing.T, conn *websocket.Conn) session.Snapshot {
	t.Helper()
	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("expected a text frame, got %v", typ)
	}
	var s session.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return s
}

func TestHandlerStreamsUntilAnalysed(t *testing.T) {
	h := NewHub()
	src := fakeSource{snaps: map[string]session.Snapshot{"S-1": snap("S-1", session.StatusRunning, 0)}}
	srv := newStreamServer(t, h, src)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/S-1/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	if first := readSnapshot(ctx, t, conn); first.Status != session.StatusRunning {
		t.Fatalf("unexpected initial snapshot: %+v", first)
	}

	h.Publish(snap("S-1", session.StatusRunning, 0.05))
	if got := readSnapshot(ctx, t, conn); got.ElapsedSec != 0.05 {
		t.Fatalf("unexpected frame: %+v", got)
	}

	h.Publish(snap("S-1", session.StatusAnalyzed, 0.05))
	if got := readSnapshot(ctx, t, conn); got.Status != session.StatusAnalyzed {
		t.Fatalf("unexpected final frame: %+v", got)
	}

	_, _, err = conn.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure, got %v (%v)", status, err)
	}
}

func TestHandlerUnknownSession(t *testing.T) {
	h := NewHub()
	srv := newStreamServer(t, h, fakeSource{})

	resp, err := http.Get(srv.URL + "/sessions/S-missing/stream")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
