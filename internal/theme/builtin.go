// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"

	"giftshuffle/internal/models"
)

// Built-in theme IDs.
const (
	PrizeWheelID  int64 = 1
	GiftBoxID     int64 = 2
	SlotMachineID int64 = 3
	ScratchCardID int64 = 4
)

// builtinThemes ship with the binary and never touch I/O.
var builtinThemes = []models.Theme{
	{ID: PrizeWheelID, Name: "Prize Wheel", Description: "A spinning wheel that slows down on the winning slice."},
	{ID: GiftBoxID, Name: "Gift Box", Description: "A wrapped box that shakes, then bursts open."},
	{ID: SlotMachineID, Name: "Slot Machine", Description: "Three reels that stop one after another."},
	{ID: ScratchCardID, Name: "Scratch Card", Description: "A silver coating that scratches away to reveal the prize."},
}

// BuiltinProvider serves the four themes compiled into the application.
type BuiltinProvider struct{}

func (BuiltinProvider) Name() string { return SourceBuiltin }

func (BuiltinProvider) List(context.Context) ([]models.Theme, error) {
	return Builtins(), nil
}

func (BuiltinProvider) Find(_ context.Context, id int64) (*models.Theme, error) {
	return findIn(Builtins(), id), nil
}

// Builtins returns a fresh copy of the built-in themes in ID order.
func Builtins() []models.Theme {
	items := make([]models.Theme, len(builtinThemes))
	for i, t := range builtinThemes {
		t.IsDefault = true
		t.IsActive = true
		t.Source = SourceBuiltin
		items[i] = t
	}
	return items
}

// DefaultThemeHTML returns the markup for a built-in theme. Unknown IDs
// get the prize wheel.
func DefaultThemeHTML(id int64) string {
	switch id {
	case GiftBoxID:
		return giftBoxHTML
	case SlotMachineID:
		return slotMachineHTML
	case ScratchCardID:
		return scratchCardHTML
	default:
		return prizeWheelHTML
	}
}

// Elements carrying data-stage are driven by the reveal script: each gets
// the "is-active" class while its stage runs and "is-done" afterwards.

const prizeWheelHTML = `<div class="gift-shuffle theme-wheel" data-theme="wheel">
  <div class="wheel-pointer"></div>
  <div class="wheel" data-stage="lid">
    <div class="wheel-slice"></div><div class="wheel-slice"></div>
    <div class="wheel-slice"></div><div class="wheel-slice"></div>
    <div class="wheel-slice"></div><div class="wheel-slice"></div>
    <div class="wheel-slice"></div><div class="wheel-slice"></div>
  </div>
  <div class="wheel-glow" data-stage="glow"></div>
  <div class="prize" data-stage="prize" data-prize-slot></div>
  <div class="progress" data-stage="progress"><div class="progress-bar"></div></div>
</div>`

const giftBoxHTML = `<div class="gift-shuffle theme-gift-box" data-theme="gift-box">
  <div class="gift-box">
    <div class="gift-lid" data-stage="lid"><div class="gift-bow"></div></div>
    <div class="gift-body"><div class="gift-ribbon"></div></div>
  </div>
  <div class="gift-glow" data-stage="glow"></div>
  <div class="sparkles" data-sparkles></div>
  <div class="prize" data-stage="prize" data-prize-slot></div>
  <div class="progress" data-stage="progress"><div class="progress-bar"></div></div>
</div>`

const slotMachineHTML = `<div class="gift-shuffle theme-slot-machine" data-theme="slot-machine">
  <div class="slot-window" data-stage="lid">
    <div class="slot-reel"><span>&#127873;</span><span>&#127775;</span><span>&#127881;</span></div>
    <div class="slot-reel"><span>&#127775;</span><span>&#127881;</span><span>&#127873;</span></div>
    <div class="slot-reel"><span>&#127881;</span><span>&#127873;</span><span>&#127775;</span></div>
  </div>
  <div class="slot-lights" data-stage="glow"></div>
  <div class="prize" data-stage="prize" data-prize-slot></div>
  <div class="progress" data-stage="progress"><div class="progress-bar"></div></div>
</div>`

const scratchCardHTML = `<div class="gift-shuffle theme-scratch-card" data-theme="scratch-card">
  <div class="scratch-card">
    <div class="prize" data-stage="prize" data-prize-slot></div>
    <div class="scratch-coating" data-stage="lid"></div>
  </div>
  <div class="scratch-shine" data-stage="glow"></div>
  <div class="progress" data-stage="progress"><div class="progress-bar"></div></div>
</div>`
