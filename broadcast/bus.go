/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package broadcast

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// State is one context's local copy of the shared snapshot.
type State interface {
	// Canonical decodes and re-encodes a snapshot without applying it.
	Canonical(snapshot []byte) ([]byte, error)
	// Replace installs a snapshot if it differs from the local state.
	Replace(snapshot []byte) (bool, error)
	// Subscribe delivers the snapshot after every local or remote change.
	Subscribe(fn func(snapshot []byte)) (unsubscribe func())
}

// Bus propagates every change of a State to the other contexts and
// applies theirs. Inbound snapshots on either path go through the same
// equality-gated Replace.
type Bus struct {
	state   State
	channel Channel
	kv      KeyValue
	key     string
	log     zerolog.Logger

	mu      sync.Mutex
	inbound []byte
	stops   []func()

	// storeMu pairs each write with written, so a read under it never
	// sees one without the other.
	storeMu sync.Mutex
	written []byte
}

func NewBus(state State, channel Channel, kv KeyValue, key string, log zerolog.Logger) *Bus {
	return &Bus{
		state:   state,
		channel: channel,
		kv:      kv,
		key:     key,
		log:     log,
	}
}

// Bootstrap seeds the local state from the stored snapshot. A missing or
// corrupt snapshot leaves the state as it is and reports false.
func (b *Bus) Bootstrap(ctx context.Context) bool {
	data, err := b.kv.Get(ctx, b.key)
	if errors.Is(err, ErrNotFound) {
		b.log.Debug().Str("key", b.key).Msg("no stored snapshot")
		return false
	}
	if err != nil {
		b.log.Warn().Err(err).Str("key", b.key).Msg("failed to load saved game")
		return false
	}

	if _, err := b.state.Replace(data); err != nil {
		b.log.Warn().Err(err).Str("key", b.key).Msg("stored snapshot is corrupt, starting fresh")
		return false
	}

	b.log.Info().Str("key", b.key).Msg("restored saved game")

	return true
}

// Start wires the state to both propagation paths until ctx is done or
// Close is called.
func (b *Bus) Start(ctx context.Context) error {
	unsubscribe, err := b.channel.Subscribe(func(payload []byte) {
		b.receive("channel", payload)
	})
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	if err := b.kv.Watch(watchCtx, b.key, func(value []byte) {
		b.storageChanged(watchCtx, value)
	}); err != nil {
		cancel()
		unsubscribe()
		return err
	}

	stopState := b.state.Subscribe(func(snapshot []byte) {
		b.Publish(ctx, snapshot)
	})

	b.mu.Lock()
	b.stops = append(b.stops, stopState, unsubscribe, cancel)
	b.mu.Unlock()

	return nil
}

// Close detaches the bus from the state and both paths.
func (b *Bus) Close() {
	b.mu.Lock()
	stops := b.stops
	b.stops = nil
	b.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// storageChanged applies the value currently stored, not the one in the
// notification, so a backlog of notifications cannot roll the state back.
// A value this bus wrote last is skipped.
func (b *Bus) storageChanged(ctx context.Context, value []byte) {
	b.storeMu.Lock()
	written := b.written
	current, err := b.kv.Get(ctx, b.key)
	b.storeMu.Unlock()

	switch {
	case errors.Is(err, ErrNotFound):
		// erased since; only a pure reader still wants the notified value
		if written != nil {
			return
		}
		current = value
	case err != nil:
		b.log.Debug().Err(err).Msg("failed to read stored snapshot after change")
		return
	}

	if written != nil && bytes.Equal(current, written) {
		return
	}

	b.receive("storage", current)
}

func (b *Bus) receive(path string, payload []byte) {
	canonical, err := b.state.Canonical(payload)
	if err != nil {
		b.log.Debug().Err(err).Str("path", path).Msg("dropping malformed snapshot")
		return
	}

	b.mu.Lock()
	b.inbound = canonical
	b.mu.Unlock()

	changed, err := b.state.Replace(canonical)

	b.mu.Lock()
	b.inbound = nil
	b.mu.Unlock()

	if err != nil {
		b.log.Debug().Err(err).Str("path", path).Msg("dropping snapshot")
		return
	}
	if changed {
		b.log.Debug().Str("path", path).Int("bytes", len(canonical)).Msg("applied remote snapshot")
	}
}

// Publish sends a snapshot on the channel and stores it if the stored
// value differs. A snapshot equal to the one being applied from a remote
// context is not sent back.
func (b *Bus) Publish(ctx context.Context, snapshot []byte) {
	b.mu.Lock()
	echo := b.inbound != nil && bytes.Equal(b.inbound, snapshot)
	b.mu.Unlock()

	if echo {
		return
	}

	if err := b.channel.Publish(ctx, snapshot); err != nil {
		b.log.Warn().Err(err).Msg("failed to broadcast snapshot")
	}

	b.persist(ctx, snapshot)
}

func (b *Bus) persist(ctx context.Context, snapshot []byte) {
	b.storeMu.Lock()
	defer b.storeMu.Unlock()

	b.written = snapshot

	stored, err := b.kv.Get(ctx, b.key)
	if err == nil && bytes.Equal(stored, snapshot) {
		return
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		b.log.Debug().Err(err).Msg("failed to read stored snapshot before write")
	}

	if err := b.kv.Put(ctx, b.key, snapshot); err != nil {
		b.log.Warn().Err(err).Str("key", b.key).Msg("failed to persist snapshot")
	}
}

// Erase deletes the stored snapshot.
func (b *Bus) Erase(ctx context.Context) error {
	return b.kv.Delete(ctx, b.key)
}
