// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// activity.go records user activity in the append-only activity log. Each
// entry captures who did what, with free-form details and the caller's
// network address.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"giftshuffle/internal/models"
	"giftshuffle/internal/query"
)

// ActivityStore handles activity log operations.
type ActivityStore struct {
	exec *query.Executor
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(exec *query.Executor) *ActivityStore {
	return &ActivityStore{exec: exec}
}

// Log appends one activity record and returns its ID. Logging is
// best-effort: a failure is logged and reported as false.
func (s *ActivityStore) Log(ctx context.Context, userID int64, activityType, details, ip string) (int64, bool) {
	res, err := s.exec.Run(ctx, `
		INSERT INTO activity_log (user_id, activity_type, details, ip_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, nullableID(userID), activityType, details, ip)
	if err != nil {
		slog.Warn("failed to log activity",
			"user_id", userID,
			"activity_type", activityType,
			"error", err,
		)
		return 0, false
	}
	if res.InsertID == nil {
		slog.Warn("activity insert returned no id", "activity_type", activityType)
		return 0, false
	}

	slog.Debug("activity logged",
		"id", *res.InsertID,
		"user_id", userID,
		"activity_type", activityType,
	)
	return *res.InsertID, true
}

// Recent returns the most recent activity entries, newest first.
func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]models.ActivityLogEntry, error) {
	res, err := s.exec.Run(ctx, `
		SELECT id, user_id, activity_type, details, ip_address, created_at
		FROM activity_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}

	entries := make([]models.ActivityLogEntry, 0, len(res.Rows))
	for _, row := range res.Rows {
		e := models.ActivityLogEntry{
			ActivityType: query.AsString(row["activity_type"]),
			Details:      query.AsString(row["details"]),
			IPAddress:    query.AsString(row["ip_address"]),
			CreatedAt:    query.AsTime(row["created_at"]),
		}
		e.ID, _ = query.AsInt64(row["id"])
		if uid, ok := query.AsInt64(row["user_id"]); ok {
			e.UserID = &uid
		}
		entries = append(entries, e)
	}
	return entries, nil
}
