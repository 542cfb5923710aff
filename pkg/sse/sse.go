// Package sse streams order events to admin dashboards that cannot hold a
// websocket open. A Broker fans published events out to every subscriber;
// each subscriber is served by a Stream bound to one response.
//
//	broker := sse.NewBroker()
//	r.Get("/api/admin/orders/stream", "admin.orders.stream", func(w http.ResponseWriter, r *http.Request) {
//	    broker.Serve(w, r, 25*time.Second)
//	})
//	broker.Publish("order.created", payload)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// subscriberBuffer bounds how far a slow client may lag before events are
// dropped for it.
const subscriberBuffer = 32

// Message is one named event with its JSON payload.
type Message struct {
	Event string
	Data  []byte
}

type Broker struct {
	mu   sync.RWMutex
	subs map[chan Message]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan Message]struct{}{}}
}

// Subscribe registers a listener. Call cancel when done.
func (b *Broker) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Publish encodes data and offers it to every subscriber without blocking.
func (b *Broker) Publish(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	msg := Message{Event: event, Data: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Serve streams events to one client until it disconnects, writing a
// comment every heartbeat to keep proxies from closing the connection.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request, heartbeat time.Duration) error {
	stream, err := New(w)
	if err != nil {
		return err
	}
	events, cancel := b.Subscribe()
	defer cancel()

	if err := stream.Comment("connected"); err != nil {
		return err
	}

	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return nil
		case msg := <-events:
			if err := stream.Send(msg); err != nil {
				return err
			}
		case <-tick.C:
			if err := stream.Comment("ping"); err != nil {
				return err
			}
		}
	}
}

// Stream writes SSE frames to a single response.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// New sets the event-stream headers and flushes them. It fails when no
// writer in the middleware chain can flush.
func New(w http.ResponseWriter) (*Stream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)

	s := &Stream{w: w, rc: http.NewResponseController(w)}
	// Streams outlive the server's WriteTimeout.
	_ = s.rc.SetWriteDeadline(time.Time{})
	if err := s.rc.Flush(); err != nil {
		return nil, fmt.Errorf("sse: streaming unsupported: %w", err)
	}
	return s, nil
}

func (s *Stream) Send(msg Message) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *Stream) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.rc.Flush()
}
