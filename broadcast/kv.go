package broadcast

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("key not found")

// KeyValue is durable snapshot storage with change notification. Watch
// handlers may also see the caller's own writes.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Watch calls handler with the new value after every write to key,
	// until ctx is done. Deletions are not reported.
	Watch(ctx context.Context, key string, handler func(value []byte)) error
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers map[string][]*subscriber
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:   make(map[string][]byte),
		watchers: make(map[string][]*subscriber),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)

	for _, w := range m.watchers[key] {
		select {
		case w.queue <- append([]byte(nil), value...):
		default:
		}
	}

	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryKV) Watch(ctx context.Context, key string, handler func([]byte)) error {
	sub := &subscriber{
		queue: make(chan []byte, subscriberQueue),
		done:  make(chan struct{}),
	}

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], sub)
	m.mu.Unlock()

	go sub.pump(handler)

	go func() {
		<-ctx.Done()

		m.mu.Lock()
		defer m.mu.Unlock()

		ws := m.watchers[key]
		for i, w := range ws {
			if w == sub {
				m.watchers[key] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		close(sub.done)
	}()

	return nil
}
