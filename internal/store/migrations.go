package store

import (
	"fmt"
)

// migrate runs database migrations to create the required schema
func (db *DB) migrate() error {
	migrations := []string{
		createUsersTable,
		createVehiclesTable,
		createGatesTable,
		createVisitorsTable,
		createAccessLogsTable,
		createIndexes,
	}

	for i, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i+1, err)
		}
	}

	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'security_officer', 'student_staff', 'visitor')),
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone_number TEXT,
    created_at DATETIME NOT NULL
);`

const createVehiclesTable = `
CREATE TABLE IF NOT EXISTS vehicles (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    license_plate TEXT UNIQUE NOT NULL,
    make TEXT NOT NULL,
    model TEXT NOT NULL,
    color TEXT NOT NULL,
    rfid_tag TEXT UNIQUE NOT NULL,
    qr_code TEXT UNIQUE NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at DATETIME NOT NULL
);`

const createGatesTable = `
CREATE TABLE IF NOT EXISTS gates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    location TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('online', 'offline', 'maintenance')),
    is_open BOOLEAN NOT NULL DEFAULT FALSE,
    last_activity DATETIME,
    assigned_officer TEXT REFERENCES users(id) ON DELETE SET NULL
);`

const createVisitorsTable = `
CREATE TABLE IF NOT EXISTS visitors (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone_number TEXT NOT NULL,
    purpose TEXT NOT NULL,
    host_name TEXT NOT NULL,
    host_contact TEXT NOT NULL,
    vehicle_plate TEXT,
    qr_code TEXT UNIQUE NOT NULL,
    valid_from DATETIME NOT NULL,
    valid_until DATETIME NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at DATETIME NOT NULL
);`

// The ledger intentionally carries no foreign keys: entries must survive
// deletion of the entities they reference, byte for byte.
const createAccessLogsTable = `
CREATE TABLE IF NOT EXISTS access_logs (
    id TEXT PRIMARY KEY,
    vehicle_id TEXT,
    user_id TEXT,
    visitor_id TEXT,
    gate_id TEXT,
    timestamp DATETIME NOT NULL,
    action TEXT NOT NULL CHECK (action IN ('entry', 'exit')),
    auth_method TEXT NOT NULL CHECK (auth_method IN ('qr_code', 'rfid', 'manual_override')),
    status TEXT NOT NULL CHECK (status IN ('authorized', 'denied', 'manual_override')),
    reason TEXT,
    processed_by TEXT
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_vehicles_user_id ON vehicles(user_id);
CREATE INDEX IF NOT EXISTS idx_vehicles_qr_code ON vehicles(qr_code);
CREATE INDEX IF NOT EXISTS idx_vehicles_rfid_tag ON vehicles(rfid_tag);
CREATE INDEX IF NOT EXISTS idx_visitors_qr_code ON visitors(qr_code);
CREATE INDEX IF NOT EXISTS idx_access_logs_timestamp ON access_logs(timestamp);
CREATE INDEX IF NOT EXISTS idx_access_logs_user_id ON access_logs(user_id);
CREATE INDEX IF NOT EXISTS idx_access_logs_gate_id ON access_logs(gate_id);
`
