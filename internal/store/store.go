// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for settings, the activity log,
// themes and users. Every store runs its statements through a
// query.Executor, so each call holds a connection only for its own duration.
package store

import "errors"

// ErrNotFound is returned by write operations whose target row is missing.
var ErrNotFound = errors.New("not found")

// nullableID maps the zero user ID to SQL NULL.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
