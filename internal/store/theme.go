// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"giftshuffle/internal/models"
	"giftshuffle/internal/query"
)

// firstCustomThemeID is where generated IDs for database themes start,
// leaving the low range to built-in and filesystem themes.
const firstCustomThemeID = 100

// ThemeStore handles all theme database operations.
type ThemeStore struct {
	exec *query.Executor
}

// NewThemeStore creates a new ThemeStore.
func NewThemeStore(exec *query.Executor) *ThemeStore {
	return &ThemeStore{exec: exec}
}

// themeColumns lists the columns selected in theme queries.
const themeColumns = `id, name, description, preview_image, is_active, is_default, directory`

// themeFromRow maps a result row onto a Theme.
func themeFromRow(row query.Row) models.Theme {
	t := models.Theme{
		Name:         query.AsString(row["name"]),
		Description:  query.AsString(row["description"]),
		PreviewImage: query.AsString(row["preview_image"]),
		IsActive:     query.AsBool(row["is_active"]),
		IsDefault:    query.AsBool(row["is_default"]),
		Directory:    query.AsString(row["directory"]),
	}
	t.ID, _ = query.AsInt64(row["id"])
	return t
}

func themesFromResult(res *query.Result) []models.Theme {
	items := make([]models.Theme, 0, len(res.Rows))
	for _, row := range res.Rows {
		items = append(items, themeFromRow(row))
	}
	return items
}

// ListActive returns the active themes ordered by name.
func (s *ThemeStore) ListActive(ctx context.Context) ([]models.Theme, error) {
	res, err := s.exec.Run(ctx, `
		SELECT `+themeColumns+`
		FROM themes
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active themes: %w", err)
	}
	return themesFromResult(res), nil
}

// List returns every theme, active or not, ordered by ID.
func (s *ThemeStore) List(ctx context.Context) ([]models.Theme, error) {
	res, err := s.exec.Run(ctx, `SELECT `+themeColumns+` FROM themes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return themesFromResult(res), nil
}

// FindActiveByID retrieves an active theme by ID. Returns nil if not found.
func (s *ThemeStore) FindActiveByID(ctx context.Context, id int64) (*models.Theme, error) {
	res, err := s.exec.Run(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return nil, fmt.Errorf("find theme by id: %w", err)
	}
	row := res.First()
	if row == nil {
		return nil, nil
	}
	t := themeFromRow(row)
	return &t, nil
}

// Create inserts a theme. A zero ID is replaced by the next free ID at or
// above the custom range. The stored ID is written back to t.
func (s *ThemeStore) Create(ctx context.Context, t *models.Theme) error {
	var (
		res *query.Result
		err error
	)
	if t.ID == 0 {
		res, err = s.exec.Run(ctx, `
			INSERT INTO themes (id, name, description, preview_image, is_active, is_default, directory)
			VALUES ((SELECT GREATEST(COALESCE(MAX(id), 0), $1) + 1 FROM themes), $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			firstCustomThemeID, t.Name, t.Description, t.PreviewImage, t.IsActive, t.IsDefault, t.Directory,
		)
	} else {
		res, err = s.exec.Run(ctx, `
			INSERT INTO themes (id, name, description, preview_image, is_active, is_default, directory)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			t.ID, t.Name, t.Description, t.PreviewImage, t.IsActive, t.IsDefault, t.Directory,
		)
	}
	if err != nil {
		return fmt.Errorf("create theme: %w", err)
	}
	if res.InsertID != nil {
		t.ID = *res.InsertID
	}
	return nil
}

// Update modifies a theme's descriptive fields.
func (s *ThemeStore) Update(ctx context.Context, id int64, name, description, directory string) error {
	res, err := s.exec.Run(ctx, `
		UPDATE themes SET name = $1, description = $2, directory = $3
		WHERE id = $4`,
		name, description, directory, id,
	)
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	if res.AffectedRows == 0 {
		return fmt.Errorf("update theme %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetActive toggles whether a theme is offered to the resolver.
func (s *ThemeStore) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.exec.Run(ctx, `UPDATE themes SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set theme active: %w", err)
	}
	if res.AffectedRows == 0 {
		return fmt.Errorf("set theme %d active: %w", id, ErrNotFound)
	}
	return nil
}

// SetPreviewImage stores the URL of an uploaded preview image.
func (s *ThemeStore) SetPreviewImage(ctx context.Context, id int64, url string) error {
	res, err := s.exec.Run(ctx, `UPDATE themes SET preview_image = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set theme preview: %w", err)
	}
	if res.AffectedRows == 0 {
		return fmt.Errorf("set theme %d preview: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a theme.
func (s *ThemeStore) Delete(ctx context.Context, id int64) error {
	res, err := s.exec.Run(ctx, `DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete theme: %w", err)
	}
	if res.AffectedRows == 0 {
		return fmt.Errorf("delete theme %d: %w", id, ErrNotFound)
	}
	return nil
}
