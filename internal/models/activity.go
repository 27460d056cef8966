// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Activity types written by the application.
const (
	ActivityLogin          = "login"
	ActivityLoginFailed    = "login_failed"
	ActivityLogout         = "logout"
	ActivityTwoFAEnrolled  = "2fa_enrolled"
	ActivitySettingUpdated = "setting_updated"
	ActivityThemeChanged   = "theme_changed"
	ActivityShuffleStarted = "shuffle_started"
	ActivityShuffleDone    = "shuffle_completed"
)

// ActivityLogEntry is one append-only audit record.
type ActivityLogEntry struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Details      string    `json:"details"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
}
