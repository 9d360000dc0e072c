// Package livereload implements the reload channel of the dev server: a
// Server-Sent Events endpoint that tells every open page to reload after a
// successful rebuild.
package livereload

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/metrics"
)

// Path is the URL path of the event stream.
const Path = "/__tars_reload__"

// Script is appended to every page built by the dev server. It reloads the
// page on any message from the event stream.
const Script = `
<script>
const es = new EventSource("` + Path + `");
es.onmessage = () => location.reload();
</script>
`

// DefaultPingInterval is how often an idle stream receives a keep-alive
// comment.
const DefaultPingInterval = 30 * time.Second

// Hub fans reload notices out to connected streams. Every subscriber has a
// one-slot buffer; a notice for a subscriber whose slot is still full is
// dropped, since the pending notice already causes a reload.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	clients  map[int]*client
	closed   bool
	recorder metrics.Recorder

	// PingInterval overrides DefaultPingInterval when positive.
	PingInterval time.Duration
}

type client struct {
	id   int
	ch   chan struct{}
	done chan struct{}
}

// NewHub returns an empty hub.
func NewHub(recorder metrics.Recorder) *Hub {
	return &Hub{clients: map[int]*client{}, recorder: metrics.OrNoop(recorder)}
}

// ServeHTTP streams reload notices to one browser until it disconnects or
// the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	c, ok := h.subscribe()
	if !ok {
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.removeClient(c.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(frame string) bool {
		if _, err := bw.WriteString(frame); err != nil {
			slog.Debug("Live reload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			slog.Debug("Live reload flush failed", logfields.Error(err))
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(": connected\n\n") {
		return
	}

	interval := h.PingInterval
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ping.C:
			if !send(": ping\n\n") {
				return
			}
		case <-c.ch:
			if !send("data: reload\n\n") {
				return
			}
		}
	}
}

func (h *Hub) subscribe() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{id: h.nextID, ch: make(chan struct{}, 1), done: make(chan struct{})}
	h.nextID++
	h.clients[c.id] = c
	h.recorder.SetReloadClients(len(h.clients))
	slog.Debug("Live reload client connected", logfields.Clients(len(h.clients)))
	return c, true
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.done)
	h.recorder.SetReloadClients(len(h.clients))
	slog.Debug("Live reload client disconnected", logfields.Clients(len(h.clients)))
}

// Broadcast queues one reload notice for every subscriber without blocking.
// It returns how many subscribers took the notice and how many already had
// one pending.
func (h *Hub) Broadcast() (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, 0
	}
	for _, c := range h.clients {
		select {
		case c.ch <- struct{}{}:
			delivered++
		default:
			dropped++
		}
	}
	h.recorder.IncReloadBroadcast(delivered, dropped)
	slog.Debug("Live reload broadcast", logfields.Clients(len(h.clients)), slog.Int("dropped", dropped))
	return delivered, dropped
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every subscriber and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.done)
		delete(h.clients, id)
	}
	h.recorder.SetReloadClients(0)
}
