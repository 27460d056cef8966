// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"unicode/utf8"

	"giftshuffle/internal/models"
	"giftshuffle/internal/slug"
)

// Validation limits for admin form fields.
const (
	maxThemeNameLen    = 200
	maxThemeDescLen    = 5_000
	maxDirectoryLen    = 100
	maxSettingValueLen = 200
	minUsernameLen     = 3
	maxUsernameLen     = 50
	minPasswordLen     = 8
	maxPasswordLen     = 72 // bcrypt ignores anything longer
)

// validateTheme checks theme form inputs and returns the first error found.
func validateTheme(name, description, directory string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Theme name is required."
	}
	if utf8.RuneCountInString(name) > maxThemeNameLen {
		return "Theme name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(description) > maxThemeDescLen {
		return "Description is too long (max 5,000 characters)."
	}
	if len(directory) > maxDirectoryLen {
		return "Directory is too long (max 100 characters)."
	}
	if directory != "" && !slug.Valid(directory) {
		return "Directory must be a folder name of lowercase letters, digits and hyphens, such as snow-globe."
	}
	return ""
}

// validateSettings checks the settings form and returns the first error found.
func validateSettings(siteName, eventTitle string) string {
	if strings.TrimSpace(siteName) == "" {
		return "Site name is required."
	}
	if utf8.RuneCountInString(siteName) > maxSettingValueLen {
		return "Site name is too long (max 200 characters)."
	}
	if utf8.RuneCountInString(eventTitle) > maxSettingValueLen {
		return "Event title is too long (max 200 characters)."
	}
	return ""
}

// validateUser checks the new-user form and returns the first error found.
func validateUser(username, password string, role models.Role) string {
	n := utf8.RuneCountInString(username)
	switch {
	case n < minUsernameLen:
		return "Username must be at least 3 characters."
	case n > maxUsernameLen:
		return "Username is too long (max 50 characters)."
	case strings.ContainsAny(username, " \t\r\n"):
		return "Username must not contain spaces."
	case len(password) < minPasswordLen:
		return "Password must be at least 8 characters."
	case len(password) > maxPasswordLen:
		return "Password is too long (max 72 bytes)."
	}
	if !validRole(role) {
		return "Invalid role."
	}
	return ""
}

// roles lists the assignable roles in display order.
var roles = []models.Role{models.RoleViewer, models.RoleOperator, models.RoleAdmin}

func validRole(role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
