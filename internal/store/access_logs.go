package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateAccessLog appends one entry to the audit ledger. The ledger is
// append-only: no update or delete path exists in this package.
func (db *DB) CreateAccessLog(log *AccessLog) error {
	log.ID = uuid.NewString()
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO access_logs (id, vehicle_id, user_id, visitor_id, gate_id, timestamp,
		                         action, auth_method, status, reason, processed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.Exec(query,
		log.ID,
		nullable(log.VehicleID),
		nullable(log.UserID),
		nullable(log.VisitorID),
		nullable(log.GateID),
		log.Timestamp,
		log.Action,
		log.AuthMethod,
		log.Status,
		nullable(log.Reason),
		nullable(log.ProcessedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert access log: %w", err)
	}

	return nil
}

// GetAccessLog retrieves a single ledger entry
func (db *DB) GetAccessLog(id string) (*AccessLog, error) {
	rows, err := db.queryAccessLogs(selectAccessLog+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// ListAccessLogs returns the full ledger, newest first
func (db *DB) ListAccessLogs() ([]*AccessLog, error) {
	return db.queryAccessLogs(selectAccessLog + " ORDER BY timestamp DESC")
}

// ListRecentAccessLogs returns the newest entries up to limit
func (db *DB) ListRecentAccessLogs(limit int) ([]*AccessLog, error) {
	return db.queryAccessLogs(selectAccessLog+" ORDER BY timestamp DESC LIMIT ?", limit)
}

// ListAccessLogsByUser returns a user's entries, newest first
func (db *DB) ListAccessLogsByUser(userID string) ([]*AccessLog, error) {
	return db.queryAccessLogs(selectAccessLog+" WHERE user_id = ? ORDER BY timestamp DESC", userID)
}

// ListAccessLogsBetween returns entries within [from, to), oldest first
func (db *DB) ListAccessLogsBetween(from, to time.Time) ([]*AccessLog, error) {
	return db.queryAccessLogs(selectAccessLog+" WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp", from, to)
}

// ListAccessLogsWithDetails returns the ledger joined with the entities
// each entry references, newest first
func (db *DB) ListAccessLogsWithDetails() ([]*AccessLogDetails, error) {
	logs, err := db.ListAccessLogs()
	if err != nil {
		return nil, err
	}
	return db.attachDetails(logs)
}

// ListRecentAccessLogsWithDetails returns the newest joined entries up to limit
func (db *DB) ListRecentAccessLogsWithDetails(limit int) ([]*AccessLogDetails, error) {
	logs, err := db.ListRecentAccessLogs(limit)
	if err != nil {
		return nil, err
	}
	return db.attachDetails(logs)
}

// attachDetails resolves entity references for a batch of ledger entries.
// References to since-deleted entities resolve to nil; the entry itself is
// returned untouched.
func (db *DB) attachDetails(logs []*AccessLog) ([]*AccessLogDetails, error) {
	details := make([]*AccessLogDetails, 0, len(logs))
	for _, log := range logs {
		d := &AccessLogDetails{AccessLog: *log}

		if log.VehicleID != "" {
			if v, err := db.GetVehicle(log.VehicleID); err == nil {
				d.Vehicle = v
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		if log.UserID != "" {
			if u, err := db.GetUser(log.UserID); err == nil {
				d.User = u
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		if log.VisitorID != "" {
			if v, err := db.GetVisitor(log.VisitorID); err == nil {
				d.Visitor = v
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		if log.GateID != "" {
			if g, err := db.GetGate(log.GateID); err == nil {
				d.Gate = g
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		if log.ProcessedBy != "" {
			if u, err := db.GetUser(log.ProcessedBy); err == nil {
				d.ProcessedByUser = u
			} else if err != ErrNotFound {
				return nil, err
			}
		}

		details = append(details, d)
	}

	return details, nil
}

const selectAccessLog = `
	SELECT id, vehicle_id, user_id, visitor_id, gate_id, timestamp,
	       action, auth_method, status, reason, processed_by
	FROM access_logs`

func (db *DB) queryAccessLogs(query string, args ...interface{}) ([]*AccessLog, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access logs: %w", err)
	}
	defer rows.Close()

	var logs []*AccessLog
	for rows.Next() {
		log := &AccessLog{}
		var vehicleID, userID, visitorID, gateID, reason, processedBy sql.NullString

		err := rows.Scan(
			&log.ID,
			&vehicleID,
			&userID,
			&visitorID,
			&gateID,
			&log.Timestamp,
			&log.Action,
			&log.AuthMethod,
			&log.Status,
			&reason,
			&processedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access log row: %w", err)
		}

		log.VehicleID = fromNull(vehicleID)
		log.UserID = fromNull(userID)
		log.VisitorID = fromNull(visitorID)
		log.GateID = fromNull(gateID)
		log.Reason = fromNull(reason)
		log.ProcessedBy = fromNull(processedBy)
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
