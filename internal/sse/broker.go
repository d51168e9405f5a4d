// Package sse implements a Server-Sent Events broker that tells open pages
// when documents or the manifest change.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventDocCreated      = "doc.created"
	EventDocUpdated      = "doc.updated"
	EventDocDeleted      = "doc.deleted"
	EventManifestUpdated = "manifest.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DocEvent is the payload of the doc.* events.
type DocEvent struct {
	Path string `json:"path"`
	Slug string `json:"slug,omitempty"`
}

// KeepaliveInterval is the period of comment frames on idle streams.
const KeepaliveInterval = 30 * time.Second

// RetryMillis is the reconnect delay suggested to browsers on connect.
const RetryMillis = 3000

const clientBuffer = 64

var docEventTypes = map[string]string{
	"created": EventDocCreated,
	"updated": EventDocUpdated,
	"deleted": EventDocDeleted,
}

// Broker fans events out to connected SSE clients.
//
// All mutable state lives in a hub owned by one goroutine; public methods
// hand it closures over a buffered channel. A doc event is followed by a
// manifest.updated at most once per throttle window. Events that land
// inside a window are folded into a single trailing manifest.updated sent
// when the window ends, so the last change is never left unannounced.
type Broker struct {
	ops     chan func(*hub)
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

type hub struct {
	clients  map[chan []byte]struct{}
	seq      uint64
	throttle time.Duration
	last     time.Time
	trailing *time.Timer
	flushCh  <-chan time.Time
}

// NewBroker starts a broker. manifest.updated is sent at most once per
// manifestThrottle; a non-positive value means two seconds.
func NewBroker(manifestThrottle time.Duration) *Broker {
	if manifestThrottle <= 0 {
		manifestThrottle = 2 * time.Second
	}
	b := &Broker{
		ops:     make(chan func(*hub), 256),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	h := &hub{
		clients:  make(map[chan []byte]struct{}),
		throttle: manifestThrottle,
	}
	go b.loop(h)
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.stopped)
	for {
		select {
		case <-b.stopCh:
			if h.trailing != nil {
				h.trailing.Stop()
			}
			for ch := range h.clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		case <-h.flushCh:
			h.trailing, h.flushCh = nil, nil
			h.last = time.Now()
			h.broadcast(Event{Type: EventManifestUpdated, Data: map[string]string{}})
		}
	}
}

// broadcast frames event with the next id and offers it to every client.
// A client whose buffer is full misses the frame.
func (h *hub) broadcast(event Event) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, event.Type, payload))
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

// manifestChanged sends manifest.updated now, or arms the trailing send if
// the current window is still open.
func (h *hub) manifestChanged() {
	if h.trailing != nil {
		return
	}
	wait := h.throttle - time.Since(h.last)
	if wait <= 0 {
		h.last = time.Now()
		h.broadcast(Event{Type: EventManifestUpdated, Data: map[string]string{}})
		return
	}
	h.trailing = time.NewTimer(wait)
	h.flushCh = h.trailing.C
}

// do runs op on the broker goroutine. It reports false once the broker
// has stopped.
func (b *Broker) do(op func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	done := make(chan struct{})
	if !b.do(func(h *hub) {
		h.clients[ch] = struct{}{}
		close(done)
	}) {
		close(ch)
		return ch
	}
	select {
	case <-done:
	case <-b.stopped:
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	if !b.do(func(h *hub) { resp <- len(h.clients) }) {
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.do(func(h *hub) { h.broadcast(event) })
}

// PublishDocEvent publishes a document change (kind is created, updated or
// deleted) followed by a throttled manifest.updated event. Other kinds only
// refresh the manifest.
func (b *Broker) PublishDocEvent(kind string, doc DocEvent) {
	b.do(func(h *hub) {
		if typ, ok := docEventTypes[kind]; ok {
			h.broadcast(Event{Type: typ, Data: doc})
		}
		h.manifestChanged()
	})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The stream opens
// with a retry hint and carries a comment frame on every keepalive tick.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", RetryMillis)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	keepalive := time.NewTicker(KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
