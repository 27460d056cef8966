// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strconv"
	"time"
)

// Well-known setting names.
const (
	SettingSiteName     = "site_name"
	SettingActiveTheme  = "active_theme_id"
	SettingSoundEnabled = "sound_enabled"
	SettingEventTitle   = "event_title"
)

// Setting is a single named configuration value.
type Setting struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	UpdatedBy *int64    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings is a convenience map for accessing settings by name.
type Settings map[string]string

// Get returns the value for a name, or the fallback if it is missing or empty.
func (s Settings) Get(name, fallback string) string {
	if v, ok := s[name]; ok && v != "" {
		return v
	}
	return fallback
}

// Bool parses a boolean setting, returning fallback when absent or invalid.
func (s Settings) Bool(name string, fallback bool) bool {
	v, ok := s[name]
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Int64 parses an integer setting, returning fallback when absent or invalid.
func (s Settings) Int64(name string, fallback int64) int64 {
	v, ok := s[name]
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
