package store

import (
	"errors"
	"testing"
	"time"
)

func TestCreateGate(t *testing.T) {
	db := setupTestDB(t)

	gate := createTestGate(t, db, "Main Gate", GateOnline)

	if gate.ID == "" {
		t.Error("Expected generated gate ID")
	}

	fetched, err := db.GetGate(gate.ID)
	if err != nil {
		t.Fatalf("Failed to fetch gate: %v", err)
	}
	if fetched.Name != "Main Gate" {
		t.Errorf("Expected name Main Gate, got %s", fetched.Name)
	}
	if fetched.IsOpen {
		t.Error("New gates should start closed")
	}
}

func TestFindOnlineGate(t *testing.T) {
	db := setupTestDB(t)

	createTestGate(t, db, "Offline Gate", GateOffline)
	first := createTestGate(t, db, "First Online", GateOnline)
	createTestGate(t, db, "Second Online", GateOnline)

	found, err := db.FindOnlineGate()
	if err != nil {
		t.Fatalf("Failed to find online gate: %v", err)
	}
	if found.ID != first.ID {
		t.Errorf("Expected first online gate %s, got %s", first.ID, found.ID)
	}
}

func TestFindOnlineGateNoneOnline(t *testing.T) {
	db := setupTestDB(t)

	createTestGate(t, db, "Offline Gate", GateOffline)
	createTestGate(t, db, "Maintenance Gate", GateMaintenance)

	if _, err := db.FindOnlineGate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound with no online gates, got %v", err)
	}
}

func TestUpdateGateRefreshesLastActivity(t *testing.T) {
	db := setupTestDB(t)

	gate := createTestGate(t, db, "Main Gate", GateOnline)
	before := *gate.LastActivity

	time.Sleep(10 * time.Millisecond)

	open := true
	updated, err := db.UpdateGate(gate.ID, GateUpdate{IsOpen: &open})
	if err != nil {
		t.Fatalf("Failed to update gate: %v", err)
	}

	if !updated.IsOpen {
		t.Error("Expected gate to be open after update")
	}
	if updated.LastActivity == nil || !updated.LastActivity.After(before) {
		t.Error("Expected last activity to be refreshed by update")
	}
}

func TestUpdateGateWritesOnlySetColumns(t *testing.T) {
	db := setupTestDB(t)

	gate := createTestGate(t, db, "Main Gate", GateOnline)

	// Open the gate the way the controller does
	open := true
	if _, err := db.UpdateGate(gate.ID, GateUpdate{IsOpen: &open}); err != nil {
		t.Fatalf("Failed to open gate: %v", err)
	}

	// A name-only update must not touch is_open, even when the caller
	// holds a stale copy of the gate from before it opened
	name := "Main Gate (renamed)"
	updated, err := db.UpdateGate(gate.ID, GateUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Failed to rename gate: %v", err)
	}

	if updated.Name != name {
		t.Errorf("Expected renamed gate, got %q", updated.Name)
	}
	if !updated.IsOpen {
		t.Error("Expected gate to stay open across a name-only update")
	}
	if updated.Status != GateOnline {
		t.Errorf("Expected status preserved, got %q", updated.Status)
	}
}

func TestUpdateGateUnknownID(t *testing.T) {
	db := setupTestDB(t)

	name := "Ghost Gate"
	_, err := db.UpdateGate("no-such-gate", GateUpdate{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown gate, got %v", err)
	}
}

func TestListGatesWithOfficers(t *testing.T) {
	db := setupTestDB(t)

	officer := createTestUser(t, db, "officer1", RoleSecurityOfficer)
	assigned := &Gate{
		Name:            "Main Gate",
		Location:        "Main Entrance",
		Status:          GateOnline,
		AssignedOfficer: officer.ID,
	}
	if err := db.CreateGate(assigned); err != nil {
		t.Fatalf("Failed to create gate: %v", err)
	}
	createTestGate(t, db, "North Gate", GateOnline)

	gates, err := db.ListGatesWithOfficers()
	if err != nil {
		t.Fatalf("Failed to list gates: %v", err)
	}
	if len(gates) != 2 {
		t.Fatalf("Expected 2 gates, got %d", len(gates))
	}

	if gates[0].Officer == nil || gates[0].Officer.ID != officer.ID {
		t.Error("Expected first gate to carry its assigned officer")
	}
	if gates[1].Officer != nil {
		t.Error("Expected second gate to have no officer")
	}
}
