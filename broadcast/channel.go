/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package broadcast keeps independent copies of one snapshot in step across
// contexts. A Bus pairs a low-latency Channel with a durable KeyValue store
// whose change notifications serve as the slower fallback path.
package broadcast

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ChannelName is the fixed name contexts broadcast snapshots on.
const ChannelName = "feud.state"

var ErrClosed = errors.New("channel closed")

// Channel is a fire-and-forget broadcast. A context never receives its own
// messages.
type Channel interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(handler func(payload []byte)) (unsubscribe func(), err error)
	Close() error
}

const subscriberQueue = 64

// MemoryHub links the channels of contexts living in one process.
type MemoryHub struct {
	mu        sync.RWMutex
	endpoints map[*MemoryChannel]struct{}
	log       zerolog.Logger
}

func NewMemoryHub(log zerolog.Logger) *MemoryHub {
	return &MemoryHub{
		endpoints: make(map[*MemoryChannel]struct{}),
		log:       log,
	}
}

// Open returns a new endpoint on the hub for one context.
func (h *MemoryHub) Open() *MemoryChannel {
	c := &MemoryChannel{
		hub:  h,
		subs: make(map[int]*subscriber),
	}

	h.mu.Lock()
	h.endpoints[c] = struct{}{}
	h.mu.Unlock()

	return c
}

func (h *MemoryHub) deliver(from *MemoryChannel, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.endpoints {
		if c == from {
			continue
		}
		c.deliver(payload)
	}
}

type subscriber struct {
	queue chan []byte
	done  chan struct{}
}

func (s *subscriber) pump(handler func([]byte)) {
	for {
		select {
		case payload := <-s.queue:
			handler(payload)
		case <-s.done:
			return
		}
	}
}

// MemoryChannel is one context's endpoint on a MemoryHub. Each subscriber
// receives messages in publish order on its own goroutine.
type MemoryChannel struct {
	hub *MemoryHub

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
}

func (c *MemoryChannel) Publish(_ context.Context, payload []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}

	c.hub.deliver(c, append([]byte(nil), payload...))

	return nil
}

func (c *MemoryChannel) Subscribe(handler func([]byte)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	id := c.nextID
	c.nextID++

	sub := &subscriber{
		queue: make(chan []byte, subscriberQueue),
		done:  make(chan struct{}),
	}
	c.subs[id] = sub

	go sub.pump(handler)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if s, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(s.done)
		}
	}, nil
}

func (c *MemoryChannel) deliver(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		select {
		case sub.queue <- payload:
		default:
			c.hub.log.Warn().Msg("subscriber queue full, dropping snapshot")
		}
	}
}

func (c *MemoryChannel) Close() error {
	c.hub.mu.Lock()
	delete(c.hub.endpoints, c)
	c.hub.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	for id, sub := range c.subs {
		delete(c.subs, id)
		close(sub.done)
	}

	return nil
}
