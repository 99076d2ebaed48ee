/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Seednode/feud/broadcast"
	"github.com/Seednode/feud/games/feud"
)

// gameContext is one independent copy of the match: its store, the bus
// keeping it in step with the others, and the browsers watching it.
type gameContext struct {
	role       string
	store      *feud.Store
	bus        *broadcast.Bus
	channel    broadcast.Channel
	hub        *Hub
	controller *feud.Controller
	restored   bool
}

// Game holds every context this process runs.
type Game struct {
	contexts map[string]*gameContext
	cancel   context.CancelFunc
}

// cueRelay forwards sound cues to every board served by this process.
type cueRelay struct {
	hubs []*Hub
}

func (r *cueRelay) PlayCue(kind feud.Cue) {
	for _, h := range r.hubs {
		h.broadcast(CueMessage{Type: "cue", Cue: kind})
	}
}

func (r *cueRelay) SetMusicEnabled(enabled bool) {
	for _, h := range r.hubs {
		h.broadcast(MusicMessage{Type: "music", Enabled: enabled})
	}
}

func newKeyValue(cfg *Config) (broadcast.KeyValue, error) {
	if cfg.dataDir == "" {
		return broadcast.NewMemoryKV(), nil
	}
	return broadcast.NewFileKV(cfg.dataDir, component("SYNC"))
}

func newGame(ctx context.Context, cfg *Config) (*Game, error) {
	ctx, cancel := context.WithCancel(ctx)

	g := &Game{
		contexts: make(map[string]*gameContext),
		cancel:   cancel,
	}

	kv, err := newKeyValue(cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	memHub := broadcast.NewMemoryHub(component("SYNC"))
	relay := &cueRelay{}

	for _, role := range cfg.roles() {
		logger := component("GAMES").With().Str("context", role).Logger()

		var ch broadcast.Channel
		switch cfg.channel {
		case channelNATS:
			ch, err = broadcast.DialNATS(cfg.natsURL, cfg.channelName, "feud-"+role, component("SYNC"))
			if err != nil {
				g.Close()
				return nil, err
			}
		default:
			ch = memHub.Open()
		}

		store := feud.NewStore(feud.WithStoreLogger(logger))
		bus := broadcast.NewBus(store, ch, kv, feud.StorageKey, component("SYNC").With().Str("context", role).Logger())

		gc := &gameContext{
			role:     role,
			store:    store,
			bus:      bus,
			channel:  ch,
			restored: bus.Bootstrap(ctx),
		}
		g.contexts[role] = gc

		if role == roleHost {
			gc.controller = feud.NewController(store, newQuestionSource(cfg),
				feud.WithCues(relay),
				feud.WithEraser(bus),
				feud.WithOverlayDelay(cfg.overlayDelay),
				feud.WithReplaceTimeout(cfg.replaceTimeout),
				feud.WithControllerLogger(logger),
			)
		}

		gc.hub = newHub(role, store, gc.controller, logger)
		relay.hubs = append(relay.hubs, gc.hub)

		if err := bus.Start(ctx); err != nil {
			g.Close()
			return nil, fmt.Errorf("start %s sync: %w", role, err)
		}

		go gc.hub.run(ctx)

		logger.Info().Bool("restored", gc.restored).Msg("context ready")
	}

	return g, nil
}

func newQuestionSource(cfg *Config) *feud.Questions {
	logger := component("GAMES")

	var remote *feud.RemoteSource
	if cfg.geminiKey != "" {
		client := feud.NewGeminiClient(cfg.geminiEndpoint, cfg.geminiModel, cfg.geminiKey, cfg.replaceTimeout)
		remote = feud.NewRemoteSource(client,
			feud.WithRetry(cfg.remoteRetries, cfg.remoteBackoff),
			feud.WithRemoteLogger(logger),
		)
	}

	return feud.NewQuestions(feud.BuiltinStaticList(), remote, cfg.batchTimeout, logger)
}

// context returns the context for role, if this process runs it.
func (g *Game) context(role string) (*gameContext, bool) {
	gc, ok := g.contexts[role]
	return gc, ok
}

// board returns the context whose state the public display shows.
func (g *Game) board() *gameContext {
	if gc, ok := g.contexts[roleDisplay]; ok {
		return gc
	}
	return g.contexts[roleHost]
}

func (g *Game) Close() error {
	g.cancel()

	var errs []error
	for _, gc := range g.contexts {
		gc.bus.Close()
		gc.hub.closeAll()
		if err := gc.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
