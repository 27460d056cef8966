// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"giftshuffle/internal/models"
)

// defaultSettings are inserted on first start when missing.
var defaultSettings = map[string]string{
	models.SettingSiteName:     "Gift Shuffle",
	models.SettingEventTitle:   "Prize Draw",
	models.SettingActiveTheme:  "1",
	models.SettingSoundEnabled: "true",
}

// Seed populates the database with initial development data: a default
// admin user (when no users exist) and any missing default settings.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed bcrypt: %w", err)
		}

		_, err = db.Exec(`
			INSERT INTO users (username, password_hash, role)
			VALUES ($1, $2, $3)
		`, "admin", string(hash), string(models.RoleAdmin))
		if err != nil {
			return fmt.Errorf("seed insert admin: %w", err)
		}

		slog.Info("database seeded with default admin user",
			"username", "admin",
			"password", "admin",
		)
	}

	for name, value := range defaultSettings {
		_, err := db.Exec(`
			INSERT INTO system_settings (setting_name, setting_value)
			VALUES ($1, $2)
			ON CONFLICT (setting_name) DO NOTHING
		`, name, value)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", name, err)
		}
	}

	return nil
}
