// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package animation

import "math/rand/v2"

// Sparkle is one decorative particle around the revealed prize.
type Sparkle struct {
	Left  float64 `json:"left"`  // percent of container width
	Top   float64 `json:"top"`   // percent of container height
	Size  float64 `json:"size"`  // px
	Delay float64 `json:"delay"` // seconds
}

// Sparkles places n particles at random. A nil rng uses the global source.
func Sparkles(n int, rng *rand.Rand) []Sparkle {
	if n <= 0 {
		return nil
	}
	float := rand.Float64
	if rng != nil {
		float = rng.Float64
	}

	out := make([]Sparkle, n)
	for i := range out {
		out[i] = Sparkle{
			Left:  float() * 100,
			Top:   float() * 100,
			Size:  4 + float()*8,
			Delay: float() * 2,
		}
	}
	return out
}
