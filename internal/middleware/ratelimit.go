// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"sync"
	"time"
)

// attemptWindow counts the attempts of one key inside the current window.
type attemptWindow struct {
	opened time.Time
	count  int
}

// RateLimiter throttles sign-in attempts per key (normally the client IP)
// with a fixed window: at most limit attempts from the moment the window
// opens until it is window old.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*attemptWindow
	limit   int
	window  time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a limiter allowing limit attempts per window and
// starts a janitor that drops closed windows. A limit below one disables
// throttling.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*attemptWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(max(window, time.Minute))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the janitor. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records an attempt for key. When the key is over its limit the
// attempt is not counted and Allow reports how long until the window
// reopens.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if rl.limit < 1 {
		return true, 0
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.opened) >= rl.window {
		rl.windows[key] = &attemptWindow{opened: now, count: 1}
		return true, 0
	}
	if w.count >= rl.limit {
		return false, w.opened.Add(rl.window).Sub(now)
	}
	w.count++
	return true, 0
}

// sweep removes windows that have closed.
func (rl *RateLimiter) sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.opened) >= rl.window {
			delete(rl.windows, key)
		}
	}
}
