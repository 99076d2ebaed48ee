/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package feud

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	ErrTeamNameRequired  = errors.New("both team names are required")
	ErrMatchInProgress   = errors.New("a match is already in progress")
	ErrReplaceInFlight   = errors.New("a replacement is already in progress")
	ErrUnknownStrategy   = errors.New("unknown replacement strategy")
	ErrNoCurrentQuestion = errors.New("no question is on the board")
)

// Strategy selects where a replacement question comes from.
type Strategy string

const (
	StrategyStatic Strategy = "static"
	StrategyRemote Strategy = "remote"
)

const (
	DefaultOverlayDelay   = 2 * time.Second
	DefaultReplaceTimeout = 15 * time.Second
)

// Eraser removes the persisted snapshot.
type Eraser interface {
	Erase(ctx context.Context) error
}

// Status is the host-side presentation state that is not part of the
// shared GameState.
type Status struct {
	Starting      bool `json:"starting"`
	Replacing     bool `json:"replacing"`
	MusicOn       bool `json:"musicOn"`
	ResumePending bool `json:"resumePending"`
}

// Controller turns host intents into Store actions plus their side
// effects.
type Controller struct {
	store          *Store
	source         Source
	cues           Cues
	eraser         Eraser
	clock          clockwork.Clock
	overlayDelay   time.Duration
	replaceTimeout time.Duration
	log            zerolog.Logger

	mu           sync.Mutex
	overlayTimer clockwork.Timer
	overlayGen   uint64
	starting     bool
	status       Status
	watchers     []func(Status)
}

type ControllerOption func(*Controller)

func WithCues(cues Cues) ControllerOption {
	return func(c *Controller) {
		c.cues = cues
	}
}

func WithEraser(e Eraser) ControllerOption {
	return func(c *Controller) {
		c.eraser = e
	}
}

func WithControllerClock(clock clockwork.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithOverlayDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.overlayDelay = d
	}
}

func WithReplaceTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.replaceTimeout = d
	}
}

func WithControllerLogger(l zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = l
	}
}

func NewController(store *Store, source Source, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:          store,
		source:         source,
		cues:           NopCues{},
		clock:          clockwork.NewRealClock(),
		overlayDelay:   DefaultOverlayDelay,
		replaceTimeout: DefaultReplaceTimeout,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.status.ResumePending = store.State().Restored()

	return c
}

// Store returns the store the controller drives.
func (c *Controller) Store() *Store {
	return c.store
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// OnStatus registers fn to be called after every status change.
func (c *Controller) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.watchers = append(c.watchers, fn)
}

func (c *Controller) updateStatus(fn func(*Status)) {
	c.mu.Lock()
	prev := c.status
	fn(&c.status)
	next := c.status
	watchers := append([]func(Status){}, c.watchers...)
	c.mu.Unlock()

	if prev == next {
		return
	}
	for _, w := range watchers {
		w(next)
	}
}

// StartMatch names the teams, loads a question batch and starts round one.
// A LOADING phase with no start in flight was left behind by a previous
// process and is taken over.
func (c *Controller) StartMatch(ctx context.Context, team1, team2 string) error {
	team1, team2 = strings.TrimSpace(team1), strings.TrimSpace(team2)
	if team1 == "" || team2 == "" {
		return ErrTeamNameRequired
	}

	c.mu.Lock()
	phase := c.store.State().Phase
	if c.starting || (phase != PhaseRegistration && phase != PhaseLoading) {
		c.mu.Unlock()
		return ErrMatchInProgress
	}
	c.starting = true
	c.mu.Unlock()

	c.updateStatus(func(s *Status) { s.Starting = true })

	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()

		c.updateStatus(func(s *Status) { s.Starting = false })
	}()

	c.SetMusic(true)

	c.store.Dispatch(BeginLoading{})

	questions := c.source.InitialBatch(ctx)

	state := c.store.Dispatch(StartMatch{
		Team1:     team1,
		Team2:     team2,
		Questions: questions,
	})

	c.log.Info().
		Str("team1", team1).
		Str("team2", team2).
		Int("questions", len(state.Questions)).
		Msg("match started")

	return nil
}

// Reveal toggles an answer on the current board.
func (c *Controller) Reveal(index int) {
	state := c.store.State()

	q, ok := state.CurrentQuestion()
	if !ok || index < 0 || index >= len(q.Answers) {
		return
	}

	if !q.Answers[index].Revealed {
		c.cues.PlayCue(CueDing)
	}

	c.store.Dispatch(ToggleAnswer{Index: index})
}

// Strike registers a wrong guess and (re)arms the overlay auto-clear, so
// the overlay stays up for the full delay after the last strike.
func (c *Controller) Strike() {
	if c.store.State().Strikes < MaxStrikes {
		c.cues.PlayCue(CueBuzz)
		c.store.Dispatch(RegisterStrike{})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopOverlayTimerLocked()

	gen := c.overlayGen
	c.overlayTimer = c.clock.AfterFunc(c.overlayDelay, func() {
		c.mu.Lock()
		if gen != c.overlayGen {
			c.mu.Unlock()
			return
		}
		c.overlayTimer = nil
		c.mu.Unlock()

		c.store.Dispatch(ClearStrikeOverlay{})
	})
}

// stopOverlayTimerLocked cancels the pending clear. Bumping the generation
// also disarms a callback that already fired but has not run yet.
func (c *Controller) stopOverlayTimerLocked() {
	c.overlayGen++
	if c.overlayTimer != nil {
		c.overlayTimer.Stop()
		c.overlayTimer = nil
	}
}

// OverlayPending reports whether an overlay auto-clear is scheduled.
func (c *Controller) OverlayPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.overlayTimer != nil
}

func (c *Controller) ClearStrikes() {
	c.store.Dispatch(ClearStrikes{})
}

func (c *Controller) Award(team TeamID) {
	before := c.store.State()
	after := c.store.Dispatch(AwardRound{Team: team})

	if t, ok := after.Teams.Team(team); ok && len(before.Questions) > 0 {
		c.log.Info().
			Int("team", int(team)).
			Str("name", t.Name).
			Int("points", before.CurrentRoundScore).
			Str("phase", string(after.Phase)).
			Msg("round awarded")
	}
}

// ReplaceQuestion swaps the current question for a fresh one. On failure
// the current question is kept and the error is returned.
func (c *Controller) ReplaceQuestion(ctx context.Context, strategy Strategy) (Question, error) {
	if strategy != StrategyStatic && strategy != StrategyRemote {
		return Question{}, ErrUnknownStrategy
	}

	if _, ok := c.store.State().CurrentQuestion(); !ok {
		return Question{}, ErrNoCurrentQuestion
	}

	switch strategy {
	case StrategyStatic:
		q := c.source.FromStaticList()
		c.store.Dispatch(ReplaceCurrentQuestion{Question: q})
		return q, nil

	case StrategyRemote:
		if !c.beginReplace() {
			return Question{}, ErrReplaceInFlight
		}
		defer c.updateStatus(func(s *Status) { s.Replacing = false })

		if c.replaceTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.replaceTimeout)
			defer cancel()
		}

		q, err := c.source.FromRemote(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("failed to replace question")
			return Question{}, err
		}

		c.store.Dispatch(ReplaceCurrentQuestion{Question: q})
		return q, nil
	}

	return Question{}, ErrUnknownStrategy
}

func (c *Controller) beginReplace() bool {
	started := false
	c.updateStatus(func(s *Status) {
		if !s.Replacing {
			s.Replacing = true
			started = true
		}
	})
	return started
}

// Reset returns the match to registration and erases the stored snapshot.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.stopOverlayTimerLocked()
	c.mu.Unlock()

	c.store.Dispatch(ResetMatch{})

	if c.eraser != nil {
		if err := c.eraser.Erase(ctx); err != nil {
			c.log.Warn().Err(err).Msg("failed to erase stored snapshot")
		}
	}

	c.updateStatus(func(s *Status) { s.ResumePending = false })
	c.SetMusic(false)

	c.log.Info().Msg("match reset")
}

// Resume acknowledges a restored session.
func (c *Controller) Resume() {
	c.updateStatus(func(s *Status) { s.ResumePending = false })
	c.SetMusic(true)
}

func (c *Controller) SetMusic(on bool) {
	c.cues.SetMusicEnabled(on)
	c.updateStatus(func(s *Status) { s.MusicOn = on })
}
