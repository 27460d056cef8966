// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"
)

func TestActivityStoreLog(t *testing.T) {
	db, exec := testDB(t)
	s := NewActivityStore(exec)

	id, ok := s.Log(context.Background(), 0, "store_test", "log entry", "127.0.0.1")
	if !ok {
		t.Fatal("Log returned false")
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM activity_log WHERE id = $1", id)
	})

	var ip string
	if err := db.QueryRow("SELECT ip_address FROM activity_log WHERE id = $1", id).Scan(&ip); err != nil {
		t.Fatalf("query: %v", err)
	}
	if ip != "127.0.0.1" {
		t.Errorf("ip: got %q, want 127.0.0.1", ip)
	}
}

func TestActivityStoreLogUnknownUser(t *testing.T) {
	_, exec := testDB(t)
	s := NewActivityStore(exec)

	// The foreign key rejects a user that doesn't exist; the failure is
	// reported, not raised.
	if _, ok := s.Log(context.Background(), 987654321, "store_test", "", ""); ok {
		t.Error("expected Log to fail for a missing user")
	}
}

func TestActivityStoreRecent(t *testing.T) {
	db, exec := testDB(t)
	s := NewActivityStore(exec)
	ctx := context.Background()

	id1, _ := s.Log(ctx, 0, "store_test", "first", "")
	id2, _ := s.Log(ctx, 0, "store_test", "second", "")
	t.Cleanup(func() {
		db.Exec("DELETE FROM activity_log WHERE id IN ($1, $2)", id1, id2)
	})

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].CreatedAt.Before(entries[1].CreatedAt) {
		t.Error("expected entries ordered by created_at DESC")
	}
}
