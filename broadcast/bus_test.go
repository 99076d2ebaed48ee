package broadcast_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/feud/broadcast"
	"github.com/Seednode/feud/games/feud"
)

// countingChannel records how often a context publishes.
type countingChannel struct {
	broadcast.Channel
	published atomic.Int32
}

func (c *countingChannel) Publish(ctx context.Context, payload []byte) error {
	c.published.Add(1)
	return c.Channel.Publish(ctx, payload)
}

type node struct {
	store   *feud.Store
	bus     *broadcast.Bus
	channel *countingChannel
}

func newNode(t *testing.T, ctx context.Context, ch broadcast.Channel, kv broadcast.KeyValue) *node {
	t.Helper()

	n := &node{
		store:   feud.NewStore(),
		channel: &countingChannel{Channel: ch},
	}
	n.bus = broadcast.NewBus(n.store, n.channel, kv, feud.StorageKey, zerolog.Nop())
	n.bus.Bootstrap(ctx)
	require.NoError(t, n.bus.Start(ctx))
	t.Cleanup(n.bus.Close)

	return n
}

func question() feud.Question {
	return feud.Question{
		ID:   "q",
		Text: "Pick one",
		Answers: []feud.Answer{
			{Text: "X", Points: 60},
			{Text: "Y", Points: 40},
		},
	}
}

func converged(a, b *feud.Store) func() bool {
	return func() bool {
		return feud.Equal(a.State(), b.State())
	}
}

func TestBus_ConvergesOverChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := broadcast.NewMemoryHub(zerolog.Nop())
	kv := broadcast.NewMemoryKV()

	host := newNode(t, ctx, hub.Open(), kv)
	display := newNode(t, ctx, hub.Open(), kv)

	host.store.Dispatch(feud.StartMatch{Team1: "A", Team2: "B", Questions: []feud.Question{question()}})
	host.store.Dispatch(feud.ToggleAnswer{Index: 0})
	host.store.Dispatch(feud.RegisterStrike{})

	require.Eventually(t, converged(host.store, display.store), time.Second, 5*time.Millisecond)

	assert.Equal(t, 60, display.store.State().CurrentRoundScore)
	assert.EqualValues(t, 3, host.channel.published.Load())
	assert.Never(t, func() bool { return display.channel.published.Load() != 0 },
		50*time.Millisecond, 5*time.Millisecond, "display must not echo snapshots back")
}

func TestBus_ConvergesOverStorageOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := broadcast.NewMemoryKV()

	// separate hubs: the fast path reaches nobody
	host := newNode(t, ctx, broadcast.NewMemoryHub(zerolog.Nop()).Open(), kv)
	display := newNode(t, ctx, broadcast.NewMemoryHub(zerolog.Nop()).Open(), kv)

	host.store.Dispatch(feud.StartMatch{Team1: "A", Team2: "B", Questions: []feud.Question{question()}})

	require.Eventually(t, converged(host.store, display.store), time.Second, 5*time.Millisecond)
	assert.Equal(t, "A", display.store.State().Teams.One.Name)
}

func TestBus_ConvergesOverFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	hostKV, err := broadcast.NewFileKV(dir, zerolog.Nop())
	require.NoError(t, err)
	displayKV, err := broadcast.NewFileKV(dir, zerolog.Nop())
	require.NoError(t, err)

	host := newNode(t, ctx, broadcast.NewMemoryHub(zerolog.Nop()).Open(), hostKV)
	display := newNode(t, ctx, broadcast.NewMemoryHub(zerolog.Nop()).Open(), displayKV)

	host.store.Dispatch(feud.StartMatch{Team1: "A", Team2: "B", Questions: []feud.Question{question()}})
	host.store.Dispatch(feud.ToggleAnswer{Index: 1})

	require.Eventually(t, converged(host.store, display.store), 2*time.Second, 10*time.Millisecond)
}

func TestBus_Bootstrap(t *testing.T) {
	ctx := context.Background()

	seed := feud.Apply(feud.NewGameState(), feud.StartMatch{Team1: "A", Team2: "B", Questions: []feud.Question{question()}})
	data, err := feud.Encode(seed)
	require.NoError(t, err)

	kv := broadcast.NewMemoryKV()
	require.NoError(t, kv.Put(ctx, feud.StorageKey, data))

	store := feud.NewStore()
	bus := broadcast.NewBus(store, broadcast.NewMemoryHub(zerolog.Nop()).Open(), kv, feud.StorageKey, zerolog.Nop())

	assert.True(t, bus.Bootstrap(ctx))
	assert.True(t, feud.Equal(seed, store.State()))
}

func TestBus_BootstrapFallsBack(t *testing.T) {
	ctx := context.Background()

	for name, stored := range map[string][]byte{
		"missing": nil,
		"corrupt": []byte("{not json"),
		"shape":   []byte(`{"phase":"ROUND_OVER"}`),
	} {
		t.Run(name, func(t *testing.T) {
			kv := broadcast.NewMemoryKV()
			if stored != nil {
				require.NoError(t, kv.Put(ctx, feud.StorageKey, stored))
			}

			store := feud.NewStore()
			bus := broadcast.NewBus(store, broadcast.NewMemoryHub(zerolog.Nop()).Open(), kv, feud.StorageKey, zerolog.Nop())

			assert.False(t, bus.Bootstrap(ctx))
			assert.True(t, feud.Equal(feud.NewGameState(), store.State()))
		})
	}
}

func TestBus_DropsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := broadcast.NewMemoryHub(zerolog.Nop())
	display := newNode(t, ctx, hub.Open(), broadcast.NewMemoryKV())
	rogue := hub.Open()

	for _, payload := range []string{"", "garbage", `{"phase":"ERROR"}`, `{"teams":{"1":{"id":1},"2":{"id":2}},"strikes":9,"phase":"PLAYING"}`} {
		require.NoError(t, rogue.Publish(ctx, []byte(payload)))
	}

	valid := feud.Apply(feud.NewGameState(), feud.BeginLoading{})
	data, err := feud.Encode(valid)
	require.NoError(t, err)
	require.NoError(t, rogue.Publish(ctx, data))

	require.Eventually(t, func() bool {
		return display.store.State().Phase == feud.PhaseLoading
	}, time.Second, 5*time.Millisecond, "receiver survives malformed input")
}

func TestBus_PersistsAndErases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := broadcast.NewMemoryKV()
	host := newNode(t, ctx, broadcast.NewMemoryHub(zerolog.Nop()).Open(), kv)

	host.store.Dispatch(feud.BeginLoading{})

	stored, err := kv.Get(ctx, feud.StorageKey)
	require.NoError(t, err)
	current, err := host.store.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(current), string(stored))

	require.NoError(t, host.bus.Erase(ctx))
	_, err = kv.Get(ctx, feud.StorageKey)
	assert.ErrorIs(t, err, broadcast.ErrNotFound)
}
