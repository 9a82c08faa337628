// Package sse implements a Server-Sent Events broker that pushes note
// collection changes to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/tagnote/internal/models"
)

// Event types sent to clients.
const (
	TypeNoteCreated   = "note.created"
	TypeNoteDeleted   = "note.deleted"
	TypeNotesReloaded = "notes.reloaded"
	TypeTagsUpdated   = "tags.updated"
)

// TagSource reports the current distinct tags and their counts.
type TagSource func() []models.TagCount

type noteRef struct {
	ID string `json:"id"`
}

type tagsPayload struct {
	Tags []models.TagCount `json:"tags"`
}

type change struct {
	kind string
	id   string
}

// Broker fans collection changes out to SSE clients.
//
// A single loop goroutine owns the client set and the tags throttle. Every
// change is followed by a tags.updated event carrying fresh counts; changes
// inside the throttle window collapse into one trailing update.
type Broker struct {
	tags    TagSource
	tagsMin time.Duration

	joinCh   chan chan []byte
	leaveCh  chan chan []byte
	changeCh chan change
	countCh  chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits tags.updated at most once per
// tagsThrottle. tags may be nil, in which case updates carry an empty list.
func NewBroker(tagsThrottle time.Duration, tags TagSource) *Broker {
	if tagsThrottle <= 0 {
		tagsThrottle = 2 * time.Second
	}
	if tags == nil {
		tags = func() []models.TagCount { return nil }
	}

	b := &Broker{
		tags:     tags,
		tagsMin:  tagsThrottle,
		joinCh:   make(chan chan []byte),
		leaveCh:  make(chan chan []byte),
		changeCh: make(chan change, 256),
		countCh:  make(chan chan int),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go b.run()
	return b
}

// frame renders one SSE message.
func frame(typ string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", typ, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastTags time.Time
	var trailing *time.Timer
	var trailingCh <-chan time.Time

	send := func(typ string, data any) {
		msg, err := frame(typ, data)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	sendTags := func() {
		lastTags = time.Now()
		tags := b.tags()
		if tags == nil {
			tags = []models.TagCount{}
		}
		send(TypeTagsUpdated, tagsPayload{Tags: tags})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.joinCh:
			clients[ch] = struct{}{}

		case ch := <-b.leaveCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			switch c.kind {
			case "created":
				send(TypeNoteCreated, noteRef{ID: c.id})
			case "deleted":
				send(TypeNoteDeleted, noteRef{ID: c.id})
			case "reloaded":
				send(TypeNotesReloaded, struct{}{})
			default:
				continue
			}

			if wait := b.tagsMin - time.Since(lastTags); wait <= 0 {
				sendTags()
			} else if trailing == nil {
				trailing = time.NewTimer(wait)
				trailingCh = trailing.C
			}

		case <-trailingCh:
			trailing, trailingCh = nil, nil
			sendTags()

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes all client channels. It is idempotent.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed when the broker stops.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.joinCh <- ch:
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
	case b.leaveCh <- ch:
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
	case b.countCh <- resp:
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

// PublishNoteEvent queues a collection change. kind is one of "created",
// "deleted" or "reloaded"; other kinds are dropped. Its signature matches
// noteservice.EventCallback.
func (b *Broker) PublishNoteEvent(kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- change{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
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
