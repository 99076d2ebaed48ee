package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Seednode/feud/games/feud"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string `json:"type"`               // "start", "reveal", "strike", "clear_strikes", "award", "replace", "reset", "resume", "music"
	Team1    string `json:"team1,omitempty"`    // start
	Team2    string `json:"team2,omitempty"`    // start
	Index    *int   `json:"index,omitempty"`    // reveal
	Team     int    `json:"team,omitempty"`     // award
	Strategy string `json:"strategy,omitempty"` // replace: "static" or "remote"
	Enabled  *bool  `json:"enabled,omitempty"`  // music
}

// SessionInfoMessage is sent immediately on connect so the client knows
// which role it is attached to.
type SessionInfoMessage struct {
	Type     string `json:"type"` // "session_info"
	Role     string `json:"role"`
	IsHost   bool   `json:"is_host"`
	Version  string `json:"version"`
	Restored bool   `json:"restored"`
}

// StateMessage carries a full snapshot of the match.
type StateMessage struct {
	Type  string          `json:"type"` // "state"
	State json.RawMessage `json:"state"`
}

// StatusMessage is sent only to host clients.
type StatusMessage struct {
	Type   string      `json:"type"` // "status"
	Status feud.Status `json:"status"`
}

type CueMessage struct {
	Type string   `json:"type"` // "cue"
	Cue  feud.Cue `json:"cue"`
}

type MusicMessage struct {
	Type    string `json:"type"` // "music"
	Enabled bool   `json:"enabled"`
}

// SimpleMessage is for notifications to a single client ("error", "replaced").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	commandRate  = rate.Limit(10)
	commandBurst = 20
)

type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	limiter *rate.Limiter
}

type command struct {
	client *Client
	msg    ClientMessage
}

// Hub fans one context's state out to the browsers attached to it, and
// for the host context feeds their commands to the controller.
type Hub struct {
	role       string
	store      *feud.Store
	controller *feud.Controller
	log        zerolog.Logger

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	commands chan command
	done     chan struct{}

	mu sync.Mutex
}

func newHub(role string, store *feud.Store, controller *feud.Controller, log zerolog.Logger) *Hub {
	h := &Hub{
		role:       role,
		store:      store,
		controller: controller,
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command, 16),
		done:       make(chan struct{}),
	}

	store.Subscribe(h.broadcastState)

	if controller != nil {
		controller.OnStatus(func(s feud.Status) {
			h.broadcast(StatusMessage{Type: "status", Status: s})
		})
	}

	return h
}

func (h *Hub) isHost() bool {
	return h.controller != nil
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			var status feud.Status
			if h.isHost() {
				status = h.controller.Status()
			}

			// Holding the store while the client joins keeps the first
			// snapshot ahead of any broadcast it misses.
			h.store.View(func(snapshot []byte) {
				h.mu.Lock()
				defer h.mu.Unlock()

				h.clients[c] = true

				c.send <- SessionInfoMessage{
					Type:     "session_info",
					Role:     h.role,
					IsHost:   h.isHost(),
					Version:  releaseVersion,
					Restored: status.ResumePending,
				}
				c.send <- StateMessage{Type: "state", State: snapshot}
				if h.isHost() {
					c.send <- StatusMessage{Type: "status", Status: status}
				}
			})

			h.log.Debug().Str("client", c.id).Msg("client connected")

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			h.log.Debug().Str("client", c.id).Msg("client disconnected")

		case cmd := <-h.commands:
			h.handleCommand(ctx, cmd)
		}
	}
}

// broadcastState is the store listener; it runs under the store's lock,
// so it only queues.
func (h *Hub) broadcastState(snapshot []byte) {
	h.broadcast(StateMessage{Type: "state", State: snapshot})
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) reply(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// handleCommand runs on the hub goroutine. Commands that wait on the
// question source run on their own goroutine so the hub keeps serving.
func (h *Hub) handleCommand(ctx context.Context, cmd command) {
	// Only the host context accepts commands
	if !h.isHost() {
		h.log.Debug().Str("type", cmd.msg.Type).Msg("ignoring command on display context")
		return
	}

	msg := cmd.msg
	ctrl := h.controller

	switch msg.Type {
	case "start":
		go func() {
			if err := ctrl.StartMatch(ctx, msg.Team1, msg.Team2); err != nil {
				h.reply(cmd.client, SimpleMessage{Type: "error", Message: err.Error()})
			}
		}()

	case "reveal":
		if msg.Index != nil {
			ctrl.Reveal(*msg.Index)
		}

	case "strike":
		ctrl.Strike()

	case "clear_strikes":
		ctrl.ClearStrikes()

	case "award":
		ctrl.Award(feud.TeamID(msg.Team))

	case "replace":
		strategy := feud.Strategy(msg.Strategy)
		run := func() {
			_, err := ctrl.ReplaceQuestion(ctx, strategy)
			switch {
			case err == nil:
				h.reply(cmd.client, SimpleMessage{Type: "replaced", Message: "Question replaced."})
			case errors.Is(err, feud.ErrNoCurrentQuestion):
				h.reply(cmd.client, SimpleMessage{Type: "error", Message: "There is no question on the board to replace."})
			case errors.Is(err, feud.ErrReplaceInFlight):
				h.reply(cmd.client, SimpleMessage{Type: "error", Message: "A replacement is already in progress."})
			default:
				h.reply(cmd.client, SimpleMessage{Type: "error", Message: "Replacement did not happen; the current question was kept."})
			}
		}
		if strategy == feud.StrategyRemote {
			go run()
		} else {
			run()
		}

	case "reset":
		ctrl.Reset(ctx)

	case "resume":
		ctrl.Resume()

	case "music":
		if msg.Enabled != nil {
			ctrl.SetMusic(*msg.Enabled)
		}

	default:
		// ignore unknown types
	}
}

// closeAll disconnects all clients of this hub.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func serveWS(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Debug().Err(err).Msg("upgrade error")
			return
		}

		client := &Client{
			id:      uuid.NewString(),
			conn:    conn,
			send:    make(chan any, 32),
			limiter: rate.NewLimiter(commandRate, commandBurst),
		}

		select {
		case h.register <- client:
		case <-h.done:
			_ = conn.Close()
			return
		case <-r.Context().Done():
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			h.log.Debug().Str("client", c.id).Str("type", msg.Type).Msg("dropping command over rate limit")
			continue
		}

		select {
		case h.commands <- command{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
