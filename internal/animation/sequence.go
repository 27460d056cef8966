// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package animation sequences the timed stages of a prize reveal. A
// Controller plays one Sequence at a time and reports stage changes,
// sound cues and completion through an Emitter; the browser script
// mirrors those events onto the theme markup.
package animation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Stage names of the default sequence.
const (
	StageLid      = "lid"
	StageGlow     = "glow"
	StagePrize    = "prize"
	StageProgress = "progress"
)

// Sound cue names of the default sequence.
const (
	SoundOpen    = "open"
	SoundSparkle = "sparkle"
	SoundReveal  = "reveal"
)

// Stage is one timed transition. Delay and Duration are in sequence units.
type Stage struct {
	Name     string  `json:"name"`
	Delay    float64 `json:"delay"`
	Duration float64 `json:"duration"`
	// Terminal marks the stage whose end completes the play.
	Terminal bool `json:"terminal,omitempty"`
}

// End returns the offset, in units, at which the stage finishes.
func (s Stage) End() float64 { return s.Delay + s.Duration }

// SoundCue plays a named sound At units after the start.
type SoundCue struct {
	Name string  `json:"name"`
	At   float64 `json:"at"`
}

// Sequence describes a full reveal animation.
type Sequence struct {
	Unit         time.Duration `json:"-"`
	Stages       []Stage       `json:"stages"`
	Sounds       []SoundCue    `json:"sounds"`
	Cooldown     float64       `json:"cooldown"`
	SparkleCount int           `json:"sparkle_count"`
}

// DefaultSequence returns the chest-style reveal: the lid opens, a glow
// builds, the prize rises, and the progress bar fills last.
func DefaultSequence(unit time.Duration) Sequence {
	return Sequence{
		Unit: unit,
		Stages: []Stage{
			{Name: StageLid, Duration: 1.5},
			{Name: StageGlow, Delay: 0.5, Duration: 2},
			{Name: StagePrize, Delay: 1, Duration: 1.5},
			{Name: StageProgress, Duration: 3, Terminal: true},
		},
		Sounds: []SoundCue{
			{Name: SoundOpen, At: 0},
			{Name: SoundSparkle, At: 1},
			{Name: SoundReveal, At: 2},
		},
		Cooldown:     0.5,
		SparkleCount: 20,
	}
}

// Duration converts a unit count to wall time.
func (s Sequence) Duration(units float64) time.Duration {
	return time.Duration(units * float64(s.Unit))
}

// Terminal returns the terminating stage, or false if there is none.
func (s Sequence) Terminal() (Stage, bool) {
	for _, st := range s.Stages {
		if st.Terminal {
			return st, true
		}
	}
	return Stage{}, false
}

// Validate checks that the sequence can be played: exactly one terminating
// stage that ends no earlier than any other, and no sound cue scheduled
// after the play completes.
func (s Sequence) Validate() error {
	if s.Unit <= 0 {
		return errors.New("animation unit must be positive")
	}
	if s.Cooldown < 0 {
		return errors.New("cooldown must not be negative")
	}

	var (
		terminal  Stage
		terminals int
		names     = make(map[string]bool, len(s.Stages))
	)
	for _, st := range s.Stages {
		if st.Name == "" {
			return errors.New("stage without a name")
		}
		if names[st.Name] {
			return fmt.Errorf("duplicate stage %q", st.Name)
		}
		names[st.Name] = true
		if st.Delay < 0 || st.Duration <= 0 {
			return fmt.Errorf("stage %q: invalid timing", st.Name)
		}
		if st.Terminal {
			terminal = st
			terminals++
		}
	}
	if terminals != 1 {
		return fmt.Errorf("expected one terminating stage, found %d", terminals)
	}

	for _, st := range s.Stages {
		if st.End() > terminal.End() {
			return fmt.Errorf("stage %q ends after terminating stage %q", st.Name, terminal.Name)
		}
	}
	for _, cue := range s.Sounds {
		if cue.At < 0 || cue.At > terminal.End() {
			return fmt.Errorf("sound %q at %gu falls outside the play (ends at %gu)", cue.Name, cue.At, terminal.End())
		}
	}
	return nil
}

// MarshalJSON adds the unit in milliseconds for the browser.
func (s Sequence) MarshalJSON() ([]byte, error) {
	type plain Sequence
	return json.Marshal(struct {
		plain
		UnitMS int64 `json:"unit_ms"`
	}{plain(s), s.Unit.Milliseconds()})
}
