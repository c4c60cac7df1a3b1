package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "campus-gate-control-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db, err := NewDB(Config{DatabasePath: filepath.Join(tempDir, "test.db")})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tempDir)
	})

	return db
}

func createTestUser(t *testing.T, db *DB, username string, role UserRole) *User {
	t.Helper()

	user := &User{
		Username: username,
		Password: "secret",
		Role:     role,
		FullName: "Test " + username,
		Email:    username + "@campus.edu",
	}
	if err := db.CreateUser(user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestGate(t *testing.T, db *DB, name string, status GateStatus) *Gate {
	t.Helper()

	gate := &Gate{
		Name:     name,
		Location: name + " location",
		Status:   status,
	}
	if err := db.CreateGate(gate); err != nil {
		t.Fatalf("Failed to create test gate: %v", err)
	}
	return gate
}

func createTestVehicle(t *testing.T, db *DB, userID, plate string) *Vehicle {
	t.Helper()

	vehicle := &Vehicle{
		UserID:       userID,
		LicensePlate: plate,
		Make:         "Toyota",
		Model:        "Corolla",
		Color:        "Blue",
	}
	if err := db.CreateVehicle(vehicle); err != nil {
		t.Fatalf("Failed to create test vehicle: %v", err)
	}
	return vehicle
}

func createTestVisitor(t *testing.T, db *DB, name string, from, until time.Time) *Visitor {
	t.Helper()

	visitor := &Visitor{
		FullName:   name,
		Email:      "visitor@example.com",
		Purpose:    "Meeting",
		HostName:   "Host",
		ValidFrom:  from,
		ValidUntil: until,
		IsActive:   true,
	}
	if err := db.CreateVisitor(visitor); err != nil {
		t.Fatalf("Failed to create test visitor: %v", err)
	}
	return visitor
}

func TestNewDB(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Fatal("Expected database to be created")
	}

	// Migrations should leave all tables queryable
	if _, err := db.ListUsers(); err != nil {
		t.Errorf("users table not usable: %v", err)
	}
	if _, err := db.ListGates(); err != nil {
		t.Errorf("gates table not usable: %v", err)
	}
	if _, err := db.ListAccessLogs(); err != nil {
		t.Errorf("access_logs table not usable: %v", err)
	}
}
