// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"giftshuffle/internal/animation"
	"giftshuffle/internal/middleware"
	"giftshuffle/internal/models"
)

const (
	// wsWriteWait bounds a single frame write.
	wsWriteWait = 10 * time.Second

	// wsPongWait is how long the peer may stay silent before the
	// connection is dropped.
	wsPongWait = 60 * time.Second

	// wsPingPeriod must be shorter than wsPongWait.
	wsPingPeriod = wsPongWait * 9 / 10

	// wsMaxMessage caps inbound client messages.
	wsMaxMessage = 512

	// wsEventBuffer holds events between the controller and the writer.
	wsEventBuffer = 64
)

// Client message types on the reveal websocket.
const (
	msgStart = "start"
	msgReset = "reset"
	msgSound = "sound"
)

// clientMessage is one command from the reveal page.
type clientMessage struct {
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// RevealSocket upgrades to a websocket and drives one animation
// controller for the page: the browser sends start, reset and sound
// commands, and receives every controller event as JSON.
func (p *Public) RevealSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	t := p.requestedTheme(r)
	ip := middleware.ClientIP(r)

	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		slog.Warn("reveal websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := make(chan animation.Event, wsEventBuffer)
	ctrl := animation.NewController(p.sequence(), func(ev animation.Event) {
		select {
		case events <- ev:
		default:
			slog.Warn("reveal event dropped", "type", ev.Type, "animation_id", ev.AnimationID)
		}
	})
	ctrl.SetSoundEnabled(p.soundEnabled(ctx))

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeEvents(conn, events, done)
	}()

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("reveal websocket closed", "error", err)
			}
			break
		}

		switch msg.Type {
		case msgStart:
			if id, ok := ctrl.Start(); ok {
				p.activity.Log(ctx, sess.UserID, models.ActivityShuffleStarted,
					fmt.Sprintf("theme=%d animation=%s", t.ID, id), ip)
			}
		case msgReset:
			ctrl.Reset()
		case msgSound:
			if msg.Enabled != nil {
				ctrl.SetSoundEnabled(*msg.Enabled)
			}
		default:
			slog.Debug("unknown reveal message", "type", msg.Type)
		}
	}

	// Close stops every timer, so no event is sent after this point.
	ctrl.Close()
	close(done)
	<-writerDone
}

// writeEvents forwards controller events to the socket and keeps it alive
// with pings. It is the only writer on conn.
func writeEvents(conn *websocket.Conn, events <-chan animation.Event, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("reveal websocket write failed", "error", err)
				// Unblock the reader.
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
