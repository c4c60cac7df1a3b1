package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateGate stores a new gate
func (db *DB) CreateGate(gate *Gate) error {
	gate.ID = uuid.NewString()
	if gate.LastActivity == nil {
		now := time.Now().UTC()
		gate.LastActivity = &now
	}

	query := `
		INSERT INTO gates (id, name, location, status, is_open, last_activity, assigned_officer)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		gate.ID,
		gate.Name,
		gate.Location,
		gate.Status,
		gate.IsOpen,
		gate.LastActivity,
		nullable(gate.AssignedOfficer),
	)
	if err != nil {
		return fmt.Errorf("failed to insert gate: %w", err)
	}

	return nil
}

// GetGate retrieves a gate by identifier
func (db *DB) GetGate(id string) (*Gate, error) {
	return db.scanGate(db.conn.QueryRow(selectGate+" WHERE id = ?", id))
}

// ListGates returns all gates in creation order
func (db *DB) ListGates() ([]*Gate, error) {
	rows, err := db.conn.Query(selectGate + " ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query gates: %w", err)
	}
	defer rows.Close()

	var gates []*Gate
	for rows.Next() {
		gate, err := db.scanGateRow(rows)
		if err != nil {
			return nil, err
		}
		gates = append(gates, gate)
	}

	return gates, rows.Err()
}

// FindOnlineGate returns the first online gate, or ErrNotFound when no
// gate is online
func (db *DB) FindOnlineGate() (*Gate, error) {
	return db.scanGate(db.conn.QueryRow(selectGate + " WHERE status = 'online' ORDER BY rowid LIMIT 1"))
}

// ListGatesWithOfficers returns all gates joined with their assigned officer
func (db *DB) ListGatesWithOfficers() ([]*GateWithOfficer, error) {
	gates, err := db.ListGates()
	if err != nil {
		return nil, err
	}

	result := make([]*GateWithOfficer, 0, len(gates))
	for _, gate := range gates {
		entry := &GateWithOfficer{Gate: *gate}
		if gate.AssignedOfficer != "" {
			officer, err := db.GetUser(gate.AssignedOfficer)
			if err != nil && err != ErrNotFound {
				return nil, err
			}
			entry.Officer = officer
		}
		result = append(result, entry)
	}

	return result, nil
}

// UpdateGate applies a partial update and returns the updated gate.
// Every gate update refreshes last_activity. Only the columns the update
// explicitly sets are written, so a concurrent writer on another column
// (the controller toggling is_open) is never overwritten with stale data.
func (db *DB) UpdateGate(id string, update GateUpdate) (*Gate, error) {
	sets := []string{"last_activity = ?"}
	args := []interface{}{time.Now().UTC()}

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *update.Location)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.IsOpen != nil {
		sets = append(sets, "is_open = ?")
		args = append(args, *update.IsOpen)
	}
	if update.AssignedOfficer != nil {
		sets = append(sets, "assigned_officer = ?")
		args = append(args, nullable(*update.AssignedOfficer))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE gates SET %s WHERE id = ?", strings.Join(sets, ", "))

	result, err := db.conn.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update gate: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check gate update result: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return db.GetGate(id)
}

const selectGate = `
	SELECT id, name, location, status, is_open, last_activity, assigned_officer
	FROM gates`

func (db *DB) scanGate(row *sql.Row) (*Gate, error) {
	gate := &Gate{}
	var lastActivity sql.NullTime
	var officer sql.NullString

	err := row.Scan(
		&gate.ID,
		&gate.Name,
		&gate.Location,
		&gate.Status,
		&gate.IsOpen,
		&lastActivity,
		&officer,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan gate: %w", err)
	}

	if lastActivity.Valid {
		gate.LastActivity = &lastActivity.Time
	}
	gate.AssignedOfficer = fromNull(officer)
	return gate, nil
}

func (db *DB) scanGateRow(rows *sql.Rows) (*Gate, error) {
	gate := &Gate{}
	var lastActivity sql.NullTime
	var officer sql.NullString

	err := rows.Scan(
		&gate.ID,
		&gate.Name,
		&gate.Location,
		&gate.Status,
		&gate.IsOpen,
		&lastActivity,
		&officer,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan gate row: %w", err)
	}

	if lastActivity.Valid {
		gate.LastActivity = &lastActivity.Time
	}
	gate.AssignedOfficer = fromNull(officer)
	return gate, nil
}
