// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns display names into folder- and URL-safe identifiers.
// Theme directories under the themes root must already be in this form.
package slug

import (
	"regexp"
	"strings"
)

var (
	// unsafe is every rune a theme folder name may not carry, once
	// lowercased. Separators survive this pass.
	unsafe = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	// separatorRun is whitespace, underscores and hyphens in any mix.
	separatorRun = regexp.MustCompile(`[\s_-]+`)
)

// Generate derives a theme folder name from a display name: lowercase
// ASCII letters and digits, words joined by single hyphens. Underscores
// and any whitespace count as word breaks; other symbols are dropped.
// Example: "Snow Globe (2026)!" becomes "snow-globe-2026".
func Generate(name string) string {
	s := unsafe.ReplaceAllString(strings.ToLower(name), "")
	s = separatorRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether dir can be used as is for a theme folder.
func Valid(dir string) bool {
	return dir != "" && Generate(dir) == dir
}
