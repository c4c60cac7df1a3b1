package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateVehicle stores a new vehicle. The RFID tag and QR code are
// system-generated and immutable thereafter; the vehicle starts active.
func (db *DB) CreateVehicle(vehicle *Vehicle) error {
	vehicle.ID = uuid.NewString()
	vehicle.QRCode = "QR-" + vehicle.ID
	vehicle.RFIDTag = "RFID-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	vehicle.IsActive = true
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO vehicles (id, user_id, license_plate, make, model, color, rfid_tag, qr_code, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		vehicle.ID,
		vehicle.UserID,
		vehicle.LicensePlate,
		vehicle.Make,
		vehicle.Model,
		vehicle.Color,
		vehicle.RFIDTag,
		vehicle.QRCode,
		vehicle.IsActive,
		vehicle.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("license plate %q already registered: %w", vehicle.LicensePlate, ErrConflict)
		}
		return fmt.Errorf("failed to insert vehicle: %w", err)
	}

	return nil
}

// GetVehicle retrieves a vehicle by identifier
func (db *DB) GetVehicle(id string) (*Vehicle, error) {
	return db.scanVehicle(db.conn.QueryRow(selectVehicle+" WHERE id = ?", id))
}

// GetVehicleByPlate retrieves a vehicle by its unique license plate
func (db *DB) GetVehicleByPlate(plate string) (*Vehicle, error) {
	return db.scanVehicle(db.conn.QueryRow(selectVehicle+" WHERE license_plate = ?", plate))
}

// GetVehicleByQRCode retrieves a vehicle by its generated QR code
func (db *DB) GetVehicleByQRCode(qrCode string) (*Vehicle, error) {
	return db.scanVehicle(db.conn.QueryRow(selectVehicle+" WHERE qr_code = ?", qrCode))
}

// GetVehicleByRFID retrieves a vehicle by its generated RFID tag
func (db *DB) GetVehicleByRFID(rfidTag string) (*Vehicle, error) {
	return db.scanVehicle(db.conn.QueryRow(selectVehicle+" WHERE rfid_tag = ?", rfidTag))
}

// ListVehicles returns all vehicles
func (db *DB) ListVehicles() ([]*Vehicle, error) {
	return db.queryVehicles(selectVehicle + " ORDER BY created_at")
}

// ListVehiclesByUser returns all vehicles owned by a user
func (db *DB) ListVehiclesByUser(userID string) ([]*Vehicle, error) {
	return db.queryVehicles(selectVehicle+" WHERE user_id = ? ORDER BY created_at", userID)
}

// UpdateVehicle applies a partial update and returns the updated vehicle.
// The generated RFID tag and QR code cannot be changed.
func (db *DB) UpdateVehicle(id string, update VehicleUpdate) (*Vehicle, error) {
	vehicle, err := db.GetVehicle(id)
	if err != nil {
		return nil, err
	}

	if update.LicensePlate != nil {
		vehicle.LicensePlate = *update.LicensePlate
	}
	if update.Make != nil {
		vehicle.Make = *update.Make
	}
	if update.Model != nil {
		vehicle.Model = *update.Model
	}
	if update.Color != nil {
		vehicle.Color = *update.Color
	}
	if update.IsActive != nil {
		vehicle.IsActive = *update.IsActive
	}

	query := `
		UPDATE vehicles
		SET license_plate = ?, make = ?, model = ?, color = ?, is_active = ?
		WHERE id = ?
	`

	_, err = db.conn.Exec(query,
		vehicle.LicensePlate,
		vehicle.Make,
		vehicle.Model,
		vehicle.Color,
		vehicle.IsActive,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("license plate %q already registered: %w", vehicle.LicensePlate, ErrConflict)
		}
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	return vehicle, nil
}

// DeleteVehicle removes a vehicle
func (db *DB) DeleteVehicle(id string) error {
	result, err := db.conn.Exec("DELETE FROM vehicles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

const selectVehicle = `
	SELECT id, user_id, license_plate, make, model, color, rfid_tag, qr_code, is_active, created_at
	FROM vehicles`

func (db *DB) scanVehicle(row *sql.Row) (*Vehicle, error) {
	vehicle := &Vehicle{}

	err := row.Scan(
		&vehicle.ID,
		&vehicle.UserID,
		&vehicle.LicensePlate,
		&vehicle.Make,
		&vehicle.Model,
		&vehicle.Color,
		&vehicle.RFIDTag,
		&vehicle.QRCode,
		&vehicle.IsActive,
		&vehicle.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vehicle: %w", err)
	}

	return vehicle, nil
}

func (db *DB) queryVehicles(query string, args ...interface{}) ([]*Vehicle, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*Vehicle
	for rows.Next() {
		vehicle := &Vehicle{}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.UserID,
			&vehicle.LicensePlate,
			&vehicle.Make,
			&vehicle.Model,
			&vehicle.Color,
			&vehicle.RFIDTag,
			&vehicle.QRCode,
			&vehicle.IsActive,
			&vehicle.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle row: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, rows.Err()
}
