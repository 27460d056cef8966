// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package theme discovers reveal themes from the database, the themes
// directory and the built-in set, and resolves a theme ID to its metadata,
// asset lists and HTML fragment.
package theme

import (
	"context"
	"fmt"

	"giftshuffle/internal/models"
)

// Source tags recorded on models.Theme.Source.
const (
	SourceDatabase  = "database"
	SourceDirectory = "directory"
	SourceBuiltin   = "builtin"
)

// Provider is one source of theme records.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// List returns every theme the provider can offer, in its own order.
	List(ctx context.Context) ([]models.Theme, error)
	// Find returns the theme with the given ID, or (nil, nil) if absent.
	Find(ctx context.Context, id int64) (*models.Theme, error)
}

// ThemeSource is the subset of the theme store the database provider reads.
type ThemeSource interface {
	ListActive(ctx context.Context) ([]models.Theme, error)
	FindActiveByID(ctx context.Context, id int64) (*models.Theme, error)
}

// DBProvider serves active rows of the themes table.
type DBProvider struct {
	src ThemeSource
}

// NewDBProvider wraps a theme store.
func NewDBProvider(src ThemeSource) *DBProvider {
	return &DBProvider{src: src}
}

func (p *DBProvider) Name() string { return SourceDatabase }

func (p *DBProvider) List(ctx context.Context) ([]models.Theme, error) {
	items, err := p.src.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list database themes: %w", err)
	}
	for i := range items {
		items[i].Source = SourceDatabase
	}
	return items, nil
}

func (p *DBProvider) Find(ctx context.Context, id int64) (*models.Theme, error) {
	t, err := p.src.FindActiveByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find database theme %d: %w", id, err)
	}
	if t != nil {
		t.Source = SourceDatabase
	}
	return t, nil
}
