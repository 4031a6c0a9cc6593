package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_database.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db == nil {
		t.Fatal("Expected non-nil database")
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestInitialize(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_init.db")
	defer os.Remove(tmpFile)

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	tables := []string{
		"users",
		"courses",
		"class_schedules",
		"attendance_records",
		"assignments",
		"exams",
		"skills",
		"milestones",
		"learning_resources",
		"finances",
		"savings_goals",
		"monthly_budgets",
		"journal_entries",
		"lifestyle_entries",
		"habits",
		"habit_logs",
		"ai_plans",
		"ai_memories",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %q to exist: %v", table, err)
		}
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_idem.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("First initialize failed: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}
}
