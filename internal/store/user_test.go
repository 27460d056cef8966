// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"giftshuffle/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	db, exec := testDB(t)
	s := NewUserStore(exec)

	username := "store-test-create"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, err := s.Create(context.Background(), username, "testpass123", models.RoleOperator)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if user.Role != models.RoleOperator {
		t.Errorf("role: got %q, want %q", user.Role, models.RoleOperator)
	}
	if user.TOTPEnabled {
		t.Error("expected totp_enabled=false for new user")
	}
	if user.PasswordHash == "" || user.PasswordHash == "testpass123" {
		t.Error("password hash must be set and not plaintext")
	}
	if !s.CheckPassword(user, "testpass123") {
		t.Error("CheckPassword should accept the right password")
	}
	if s.CheckPassword(user, "wrong") {
		t.Error("CheckPassword should reject a wrong password")
	}
}

func TestUserStoreFindByUsername(t *testing.T) {
	db, exec := testDB(t)
	s := NewUserStore(exec)
	ctx := context.Background()

	username := "store-test-find"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("FindByUsername (not found): %v", err)
	}
	if user != nil {
		t.Error("expected nil for non-existent user")
	}

	created, err := s.Create(ctx, username, "pass", models.RoleViewer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	user, err = s.FindByUsername(ctx, username)
	if err != nil || user == nil {
		t.Fatalf("FindByUsername: %v, %v", user, err)
	}
	if user.ID != created.ID {
		t.Errorf("ID mismatch: got %d, want %d", user.ID, created.ID)
	}

	byID, err := s.FindByID(ctx, created.ID)
	if err != nil || byID == nil || byID.Username != username {
		t.Errorf("FindByID: got %+v, %v", byID, err)
	}
}

func TestUserStoreTOTPLifecycle(t *testing.T) {
	db, exec := testDB(t)
	s := NewUserStore(exec)
	ctx := context.Background()

	username := "store-test-totp"
	t.Cleanup(func() { cleanUsers(t, db, username) })

	user, err := s.Create(ctx, username, "pass", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetTOTPSecret(ctx, user.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	if err := s.EnableTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}
	got, _ := s.FindByID(ctx, user.ID)
	if got == nil || !got.Needs2FA() {
		t.Fatalf("expected user to need 2FA after enrolment, got %+v", got)
	}

	if err := s.ResetTOTP(ctx, user.ID); err != nil {
		t.Fatalf("ResetTOTP: %v", err)
	}
	got, _ = s.FindByID(ctx, user.ID)
	if got == nil || got.Needs2FA() || got.TOTPSecret != nil {
		t.Errorf("expected 2FA cleared after reset, got %+v", got)
	}
}
