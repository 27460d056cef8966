// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"giftshuffle/internal/models"
	"giftshuffle/internal/query"
)

// SettingStore manages system settings in the database.
type SettingStore struct {
	exec *query.Executor
}

// NewSettingStore returns a new SettingStore backed by the given executor.
func NewSettingStore(exec *query.Executor) *SettingStore {
	return &SettingStore{exec: exec}
}

// Get returns a setting by name. The read path is best-effort: any failure
// is logged and reported as a miss, never returned to the caller.
func (s *SettingStore) Get(ctx context.Context, name string) (string, bool) {
	res, err := s.exec.Run(ctx,
		`SELECT setting_value FROM system_settings WHERE setting_name = $1`, name)
	if err != nil {
		slog.Error("get setting failed", "name", name, "error", err)
		return "", false
	}
	row := res.First()
	if row == nil {
		return "", false
	}
	return query.AsString(row["setting_value"]), true
}

// Update changes an existing setting. It returns true only when exactly one
// row was affected; a missing setting or a failure (logged) yields false.
func (s *SettingStore) Update(ctx context.Context, name, value string, userID int64) bool {
	res, err := s.exec.Run(ctx, `
		UPDATE system_settings
		SET setting_value = $1, updated_by = $2, updated_at = NOW()
		WHERE setting_name = $3`,
		value, nullableID(userID), name,
	)
	if err != nil {
		slog.Error("update setting failed", "name", name, "error", err)
		return false
	}
	return res.AffectedRows == 1
}

// Set upserts a setting, creating it if it doesn't exist.
func (s *SettingStore) Set(ctx context.Context, name, value string, userID int64) error {
	_, err := s.exec.Run(ctx, `
		INSERT INTO system_settings (setting_name, setting_value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (setting_name)
		DO UPDATE SET setting_value = EXCLUDED.setting_value,
		              updated_by = EXCLUDED.updated_by,
		              updated_at = EXCLUDED.updated_at`,
		name, value, nullableID(userID),
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", name, err)
	}
	return nil
}

// SetMany upserts several settings inside one transaction.
func (s *SettingStore) SetMany(ctx context.Context, settings map[string]string, userID int64) error {
	tx, err := s.exec.DB().BeginTx(ctx, nil)
	if err != nil {
		return &query.ConnectionError{Err: err}
	}
	defer tx.Rollback()

	for name, value := range settings {
		_, err := query.RunOn(ctx, tx, `
			INSERT INTO system_settings (setting_name, setting_value, updated_by, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (setting_name)
			DO UPDATE SET setting_value = EXCLUDED.setting_value,
			              updated_by = EXCLUDED.updated_by,
			              updated_at = EXCLUDED.updated_at`,
			name, value, nullableID(userID),
		)
		if err != nil {
			return fmt.Errorf("set setting %s: %w", name, err)
		}
	}

	return tx.Commit()
}

// All returns every setting as a convenience map.
func (s *SettingStore) All(ctx context.Context) (models.Settings, error) {
	res, err := s.exec.Run(ctx, `SELECT setting_name, setting_value FROM system_settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	settings := make(models.Settings, len(res.Rows))
	for _, row := range res.Rows {
		settings[query.AsString(row["setting_name"])] = query.AsString(row["setting_value"])
	}
	return settings, nil
}

// List returns every setting with its audit columns, ordered by name.
func (s *SettingStore) List(ctx context.Context) ([]models.Setting, error) {
	res, err := s.exec.Run(ctx, `
		SELECT setting_name, setting_value, updated_by, updated_at
		FROM system_settings
		ORDER BY setting_name`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	items := make([]models.Setting, 0, len(res.Rows))
	for _, row := range res.Rows {
		item := models.Setting{
			Name:      query.AsString(row["setting_name"]),
			Value:     query.AsString(row["setting_value"]),
			UpdatedAt: query.AsTime(row["updated_at"]),
		}
		if id, ok := query.AsInt64(row["updated_by"]); ok {
			item.UpdatedBy = &id
		}
		items = append(items, item)
	}
	return items, nil
}
