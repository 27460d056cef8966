// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"giftshuffle/internal/models"
)

// File names inside a theme directory.
const (
	manifestFile = "theme.json"
	previewFile  = "preview.jpg"
	htmlFile     = "theme.html"
)

// manifest is the on-disk shape of theme.json.
type manifest struct {
	ID           *int64 `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PreviewImage string `json:"preview_image"`
}

// DirProvider discovers themes as subdirectories of a root directory, each
// carrying a theme.json manifest.
type DirProvider struct {
	root   string
	prefix string
}

// NewDirProvider creates a provider over root. Asset and preview URLs are
// built under urlPrefix, which is where the router serves root.
func NewDirProvider(root, urlPrefix string) *DirProvider {
	return &DirProvider{
		root:   root,
		prefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

func (d *DirProvider) Name() string { return SourceDirectory }

// Root returns the directory being scanned.
func (d *DirProvider) Root() string { return d.root }

func (d *DirProvider) List(ctx context.Context) ([]models.Theme, error) {
	return d.Scan(ctx)
}

func (d *DirProvider) Find(ctx context.Context, id int64) (*models.Theme, error) {
	items, err := d.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return findIn(items, id), nil
}

// Scan enumerates the subdirectories of the root in name order and returns
// one theme per directory with a usable manifest. A missing root yields an
// empty list; directories without a valid manifest are skipped.
func (d *DirProvider) Scan(ctx context.Context) ([]models.Theme, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("themes directory not found", "root", d.root)
			return nil, nil
		}
		return nil, err
	}

	var items []models.Theme
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}

		t, err := d.load(e.Name())
		if err != nil {
			slog.Debug("skipping theme directory", "directory", e.Name(), "error", err)
			continue
		}
		items = append(items, *t)
	}
	return items, nil
}

// load reads one theme directory.
func (d *DirProvider) load(name string) (*models.Theme, error) {
	dir := filepath.Join(d.root, name)
	cfgPath := filepath.Join(dir, manifestFile)

	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &ConfigParseError{Path: cfgPath, Err: err}
	}
	if m.ID == nil {
		return nil, &ConfigParseError{Path: cfgPath, Err: errors.New("missing id")}
	}
	if strings.TrimSpace(m.Name) == "" {
		return nil, &ConfigParseError{Path: cfgPath, Err: errors.New("missing name")}
	}

	t := &models.Theme{
		ID:           *m.ID,
		Name:         m.Name,
		Description:  m.Description,
		PreviewImage: m.PreviewImage,
		IsActive:     true,
		Directory:    name,
		Path:         dir,
		Source:       SourceDirectory,
	}
	if fileExists(filepath.Join(dir, previewFile)) {
		t.PreviewImage = d.URL(name, previewFile)
	}
	return t, nil
}

// PathFor maps a theme directory name onto the filesystem. Names that
// would escape the root resolve to "".
func (d *DirProvider) PathFor(directory string) string {
	if directory == "" || directory == "." || directory == ".." ||
		strings.ContainsAny(directory, `/\`) {
		return ""
	}
	return filepath.Join(d.root, directory)
}

// URL returns the web path of a file inside a theme directory.
func (d *DirProvider) URL(directory, rel string) string {
	return path.Join(d.prefix, directory, filepath.ToSlash(rel))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func findIn(items []models.Theme, id int64) *models.Theme {
	for i := range items {
		if items[i].ID == id {
			t := items[i]
			return &t
		}
	}
	return nil
}
