// Feud game board
//
// One process serves the host console and the public board. The host
// console drives the match; the board only mirrors it.
//
// Routes:
//   - /host        → host console
//   - /display     → public board, meant for a projector or TV
//   - /ws/:role    → WebSocket for the host or display context
//   - /qr          → PNG QR code pointing at /display
//   - /api/state   → current board snapshot as JSON

package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// requestScheme respects TLS and X-Forwarded-Proto if present.
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// serveQR renders a QR code for the display page of this server.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		url := requestScheme(r) + "://" + r.Host + cfg.prefix + "/display"

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err
		}
	}
}

// serveState returns the snapshot the board is showing.
func serveState(cfg *Config, game *Game, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		snapshot, err := game.board().store.Encode()
		if err != nil {
			http.Error(w, "state unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		written, err := w.Write(snapshot)
		if err != nil {
			errs <- err

			return
		}

		logger := component("SERVE")
		logger.Debug().
			Str("size", humanReadableSize(int64(written))).
			Str("ip", realIP(r)).
			Dur("elapsed", time.Since(startTime).Round(time.Microsecond)).
			Msg("state snapshot")
	}
}

// serveRoleWS attaches a browser to the context named in the path, if
// this process runs it.
func serveRoleWS(game *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gc, ok := game.context(ps.ByName("role"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		serveWS(gc.hub)(w, r)
	}
}

// serveRolePage serves a page only when this process runs its context.
func serveRolePage(cfg *Config, game *Game, role, name string, errs chan<- error) httprouter.Handle {
	page := servePage(cfg, name, errs)

	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := game.context(role); !ok {
			http.NotFound(w, r)
			return
		}

		page(w, r, ps)
	}
}

func registerFeudGame(cfg *Config, game *Game, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/host", serveRolePage(cfg, game, roleHost, "assets/feud/host.html", errs))
	mux.GET(cfg.prefix+"/display", serveRolePage(cfg, game, roleDisplay, "assets/feud/display.html", errs))

	mux.GET(cfg.prefix+"/ws/:role", serveRoleWS(game))

	mux.GET(cfg.prefix+"/qr", serveQR(cfg, errs))

	mux.GET(cfg.prefix+"/api/state", serveState(cfg, game, errs))
}
