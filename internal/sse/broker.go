// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/inscribe/internal/models"
	"github.com/starford/inscribe/internal/noteservice"
)

// Event types.
const (
	TypeNoteCreated    = "note.created"
	TypeNoteUpdated    = "note.updated"
	TypeNoteDeleted    = "note.deleted"
	TypeFeeUpdated     = "fee.updated"
	TypeCounterUpdated = "counter.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NoteData is the payload of note.* events.
type NoteData struct {
	ID    uint64          `json:"id"`
	Owner models.Identity `json:"owner"`
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + counter throttle). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	counterMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan noteservice.Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. counter.updated is sent at most once per
// counterThrottle; the latest total is always delivered eventually.
func NewBroker(counterThrottle time.Duration) *Broker {
	if counterThrottle <= 0 {
		counterThrottle = 2 * time.Second
	}

	b := &Broker{
		counterMin:    counterThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan noteservice.Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})

	var (
		lastCounter  time.Time
		pendingTotal uint64
		pending      bool
		flush        *time.Timer
		flushCh      <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	sendCounter := func(now time.Time) {
		lastCounter = now
		pending = false
		broadcast(Event{Type: TypeCounterUpdated, Data: map[string]uint64{"total_count": pendingTotal}})
	}

	for {
		select {
		case <-b.stopCh:
			if flush != nil {
				flush.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case <-flushCh:
			flushCh = nil
			if pending {
				sendCounter(time.Now())
			}

		case ev := <-b.changeCh:
			data := NoteData{ID: ev.ID, Owner: ev.Owner}
			switch ev.Kind {
			case noteservice.EventNoteCreated:
				broadcast(Event{Type: TypeNoteCreated, Data: data})
			case noteservice.EventNoteUpdated:
				broadcast(Event{Type: TypeNoteUpdated, Data: data})
			case noteservice.EventNoteDeleted:
				broadcast(Event{Type: TypeNoteDeleted, Data: data})
			case noteservice.EventFeeUpdated:
				broadcast(Event{Type: TypeFeeUpdated, Data: map[string]uint64{"fee": ev.Fee}})
			}
			if ev.Kind != noteservice.EventNoteCreated {
				continue
			}

			pendingTotal = ev.Total
			pending = true
			now := time.Now()
			if wait := b.counterMin - now.Sub(lastCounter); wait > 0 {
				if flushCh == nil {
					if flush == nil {
						flush = time.NewTimer(wait)
					} else {
						flush.Reset(wait)
					}
					flushCh = flush.C
				}
				continue
			}
			sendCounter(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
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
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Observe forwards a committed service change. It satisfies
// noteservice.Observer.
func (b *Broker) Observe(ev noteservice.Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- ev:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
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
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
