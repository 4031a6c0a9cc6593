package services

import (
	"context"
	"path/filepath"
	"testing"

	"momentum/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *database.DB) string {
	t.Helper()

	user, err := NewUserService(db).CreateUser(context.Background(),
		"test@example.com", "hashed-password", "Test", "User")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user.ID
}
