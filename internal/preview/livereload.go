package preview

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// heartbeatInterval keeps idle SSE connections from being closed by proxies.
var heartbeatInterval = 30 * time.Second

// Hub fans build notifications out to connected browsers over server-sent events.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	clients map[int]*hubClient
	closed  bool
	last    string
}

type hubClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewHub returns an empty live reload hub.
func NewHub() *Hub {
	return &Hub{clients: map[int]*hubClient{}}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &hubClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.last
	h.mu.Unlock()
	defer h.removeClient(client.id)

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		return
	}
	if current != "" {
		_, _ = bw.WriteString(event(current))
	}
	if err := bw.Flush(); err != nil {
		return
	}
	flusher.Flush()

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-hb.C:
			if _, err := bw.WriteString(": ping\n\n"); err != nil {
				slog.Debug("livereload ping write", "error", err)
				return
			}
		case msg := <-client.ch:
			if _, err := bw.WriteString(event(msg)); err != nil {
				slog.Debug("livereload write", "error", err)
				return
			}
		}
		if err := bw.Flush(); err != nil {
			return
		}
		flusher.Flush()
	}
}

func event(msg string) string {
	return "data: {\"build\":\"" + msg + "\"}\n\n"
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every client. Repeats of the last message are
// skipped and clients that cannot keep up are dropped.
func (h *Hub) Broadcast(msg string) {
	h.mu.Lock()
	if h.closed || msg == "" || msg == h.last {
		h.mu.Unlock()
		return
	}
	h.last = msg
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- msg:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("livereload broadcast", "build", msg, "clients", len(snapshot), "dropped", dropped)
}

// Shutdown disconnects all clients and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// Script is the client served at /livereload.js. It remembers the first
// build it sees and reloads the page when a different one arrives.
const Script = `(() => {
  if (window.__BLOGBUILDER_LR__) return;
  window.__BLOGBUILDER_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    let failed = false;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (!p.build) return;
        if (p.build.startsWith('error:')) { failed = true; console.warn('[blogbuilder] rebuild failed, keeping current page'); return; }
        if (current === null && !failed) { current = p.build; return; }
        if (p.build !== current) { console.log('[blogbuilder] change detected, reloading'); location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`
