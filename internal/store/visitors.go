package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateVisitor stores a new visitor pass. The QR code is system-generated
// and immutable thereafter; the pass starts active unless explicitly
// created inactive.
func (db *DB) CreateVisitor(visitor *Visitor) error {
	visitor.ID = uuid.NewString()
	visitor.QRCode = "VISITOR-" + visitor.ID
	if visitor.CreatedAt.IsZero() {
		visitor.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO visitors (id, full_name, email, phone_number, purpose, host_name, host_contact,
		                      vehicle_plate, qr_code, valid_from, valid_until, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		visitor.ID,
		visitor.FullName,
		visitor.Email,
		visitor.PhoneNumber,
		visitor.Purpose,
		visitor.HostName,
		visitor.HostContact,
		nullable(visitor.VehiclePlate),
		visitor.QRCode,
		visitor.ValidFrom,
		visitor.ValidUntil,
		visitor.IsActive,
		visitor.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("visitor QR code already exists: %w", ErrConflict)
		}
		return fmt.Errorf("failed to insert visitor: %w", err)
	}

	return nil
}

// GetVisitor retrieves a visitor pass by identifier
func (db *DB) GetVisitor(id string) (*Visitor, error) {
	return db.scanVisitor(db.conn.QueryRow(selectVisitor+" WHERE id = ?", id))
}

// GetVisitorByQRCode retrieves a visitor pass by its generated QR code
func (db *DB) GetVisitorByQRCode(qrCode string) (*Visitor, error) {
	return db.scanVisitor(db.conn.QueryRow(selectVisitor+" WHERE qr_code = ?", qrCode))
}

// ListVisitors returns all visitor passes
func (db *DB) ListVisitors() ([]*Visitor, error) {
	return db.queryVisitors(selectVisitor + " ORDER BY created_at")
}

// ListVisitorsByEmail returns all visitor passes registered with an email
func (db *DB) ListVisitorsByEmail(email string) ([]*Visitor, error) {
	return db.queryVisitors(selectVisitor+" WHERE email = ? ORDER BY created_at", email)
}

// UpdateVisitor applies a partial update and returns the updated pass.
// The generated QR code cannot be changed.
func (db *DB) UpdateVisitor(id string, update VisitorUpdate) (*Visitor, error) {
	visitor, err := db.GetVisitor(id)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		visitor.FullName = *update.FullName
	}
	if update.Email != nil {
		visitor.Email = *update.Email
	}
	if update.PhoneNumber != nil {
		visitor.PhoneNumber = *update.PhoneNumber
	}
	if update.Purpose != nil {
		visitor.Purpose = *update.Purpose
	}
	if update.HostName != nil {
		visitor.HostName = *update.HostName
	}
	if update.HostContact != nil {
		visitor.HostContact = *update.HostContact
	}
	if update.VehiclePlate != nil {
		visitor.VehiclePlate = *update.VehiclePlate
	}
	if update.ValidFrom != nil {
		visitor.ValidFrom = *update.ValidFrom
	}
	if update.ValidUntil != nil {
		visitor.ValidUntil = *update.ValidUntil
	}
	if update.IsActive != nil {
		visitor.IsActive = *update.IsActive
	}

	query := `
		UPDATE visitors
		SET full_name = ?, email = ?, phone_number = ?, purpose = ?, host_name = ?, host_contact = ?,
		    vehicle_plate = ?, valid_from = ?, valid_until = ?, is_active = ?
		WHERE id = ?
	`

	_, err = db.conn.Exec(query,
		visitor.FullName,
		visitor.Email,
		visitor.PhoneNumber,
		visitor.Purpose,
		visitor.HostName,
		visitor.HostContact,
		nullable(visitor.VehiclePlate),
		visitor.ValidFrom,
		visitor.ValidUntil,
		visitor.IsActive,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update visitor: %w", err)
	}

	return visitor, nil
}

const selectVisitor = `
	SELECT id, full_name, email, phone_number, purpose, host_name, host_contact,
	       vehicle_plate, qr_code, valid_from, valid_until, is_active, created_at
	FROM visitors`

func (db *DB) scanVisitor(row *sql.Row) (*Visitor, error) {
	visitor := &Visitor{}
	var plate sql.NullString

	err := row.Scan(
		&visitor.ID,
		&visitor.FullName,
		&visitor.Email,
		&visitor.PhoneNumber,
		&visitor.Purpose,
		&visitor.HostName,
		&visitor.HostContact,
		&plate,
		&visitor.QRCode,
		&visitor.ValidFrom,
		&visitor.ValidUntil,
		&visitor.IsActive,
		&visitor.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan visitor: %w", err)
	}

	visitor.VehiclePlate = fromNull(plate)
	return visitor, nil
}

func (db *DB) queryVisitors(query string, args ...interface{}) ([]*Visitor, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []*Visitor
	for rows.Next() {
		visitor := &Visitor{}
		var plate sql.NullString

		err := rows.Scan(
			&visitor.ID,
			&visitor.FullName,
			&visitor.Email,
			&visitor.PhoneNumber,
			&visitor.Purpose,
			&visitor.HostName,
			&visitor.HostContact,
			&plate,
			&visitor.QRCode,
			&visitor.ValidFrom,
			&visitor.ValidUntil,
			&visitor.IsActive,
			&visitor.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visitor row: %w", err)
		}

		visitor.VehiclePlate = fromNull(plate)
		visitors = append(visitors, visitor)
	}

	return visitors, rows.Err()
}
