// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Theme identifies one visual treatment of the prize reveal. Built-in
// themes ship with the application bundle; the rest come from the themes
// table or from a directory under the themes root.
type Theme struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PreviewImage string `json:"preview_image"`
	IsDefault    bool   `json:"is_default"`
	IsActive     bool   `json:"is_active"`
	Directory    string `json:"directory,omitempty"`
	Path         string `json:"-"`      // Filesystem location derived from Directory
	Source       string `json:"source"` // Provider that supplied the record
}

// ThemeAssets lists the stylesheets and scripts a theme needs, as
// web-relative paths in load order.
type ThemeAssets struct {
	CSS []string `json:"css"`
	JS  []string `json:"js"`
}
