// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package animation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the controller's position in a play.
type State int

const (
	Idle State = iota
	Started
	Completed
)

func (s State) String() string {
	switch s {
	case Started:
		return "started"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// EventType names the events a Controller emits.
type EventType string

const (
	EventStarted    EventType = "started"
	EventStageStart EventType = "stage_start"
	EventStageEnd   EventType = "stage_end"
	EventSound      EventType = "sound"
	EventCompleted  EventType = "completed"
	EventReset      EventType = "reset"
	EventIdle       EventType = "idle"
)

// Event is one step of a play.
type Event struct {
	Type        EventType `json:"type"`
	AnimationID string    `json:"animation_id"`
	Stage       string    `json:"stage,omitempty"`
	Sound       string    `json:"sound,omitempty"`
	At          time.Time `json:"at"`
}

// Emitter receives controller events. It is called with the controller's
// lock held, so it must not block or call back into the controller.
type Emitter func(Event)

// Controller plays a Sequence, allowing one play in flight at a time.
// State moves Idle → Started → Completed and back to Idle once the
// cooldown has passed.
type Controller struct {
	seq  Sequence
	emit Emitter

	mu     sync.Mutex
	state  State
	id     string
	gen    uint64
	sound  bool
	closed bool
	timers []*time.Timer
}

// NewController creates an idle controller. Sound cues are emitted only
// after SetSoundEnabled(true).
func NewController(seq Sequence, emit Emitter) *Controller {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Controller{seq: seq, emit: emit}
}

// SetSoundEnabled toggles sound cues. The flag is read when each cue
// fires, so it applies to a play already in progress.
func (c *Controller) SetSoundEnabled(on bool) {
	c.mu.Lock()
	c.sound = on
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AnimationID returns the ID of the current or most recent play.
func (c *Controller) AnimationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Start begins a play and returns its animation ID. It is a no-op,
// returning false, while a play is running or after Close.
func (c *Controller) Start() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state == Started {
		return "", false
	}

	c.cancelLocked()
	c.state = Started
	c.id = uuid.NewString()
	gen := c.gen

	c.emitLocked(Event{Type: EventStarted})

	for _, st := range c.seq.Stages {
		c.after(gen, st.Delay, func() {
			c.emitLocked(Event{Type: EventStageStart, Stage: st.Name})
		})
		c.after(gen, st.End(), func() {
			c.emitLocked(Event{Type: EventStageEnd, Stage: st.Name})
			if st.Terminal {
				c.completeLocked(gen)
			}
		})
	}
	for _, cue := range c.seq.Sounds {
		c.after(gen, cue.At, func() {
			if c.sound {
				c.emitLocked(Event{Type: EventSound, Sound: cue.Name})
			}
		})
	}
	return c.id, true
}

// Reset abandons the current play without completing it and returns the
// controller to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	wasIdle := c.state == Idle
	c.cancelLocked()
	c.state = Idle
	if !wasIdle {
		c.emitLocked(Event{Type: EventReset})
	}
}

// Close cancels all pending timers. No events are emitted afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.closed = true
	c.state = Idle
}

// completeLocked emits the completion event and schedules the cooldown.
func (c *Controller) completeLocked(gen uint64) {
	c.state = Completed
	c.emitLocked(Event{Type: EventCompleted})

	c.after(gen, c.seq.Cooldown, func() {
		c.state = Idle
		c.emitLocked(Event{Type: EventIdle})
	})
}

// after schedules fn at a unit offset within play gen. fn runs with the
// lock held and is skipped if the play was cancelled in the meantime.
func (c *Controller) after(gen uint64, units float64, fn func()) {
	t := time.AfterFunc(c.seq.Duration(units), func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.gen != gen {
			return
		}
		fn()
	})
	c.timers = append(c.timers, t)
}

// cancelLocked stops every timer and invalidates callbacks already queued.
func (c *Controller) cancelLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.gen++
}

func (c *Controller) emitLocked(ev Event) {
	if c.closed {
		return
	}
	ev.AnimationID = c.id
	ev.At = time.Now()
	c.emit(ev)
}
