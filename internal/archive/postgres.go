// Package archive mirrors access ledger entries to an external PostgreSQL
// database for long-term retention. The mirror is write-only and best
// effort: the local SQLite ledger remains the source of truth, and a
// failed mirror write never fails the access decision that produced it.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"campus-gate-control/internal/events"
	"campus-gate-control/internal/store"
)

const createArchiveTable = `
CREATE TABLE IF NOT EXISTS access_log_archive (
	id TEXT PRIMARY KEY,
	vehicle_id TEXT,
	user_id TEXT,
	visitor_id TEXT,
	gate_id TEXT,
	timestamp TIMESTAMPTZ NOT NULL,
	action TEXT NOT NULL,
	auth_method TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT,
	processed_by TEXT,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Archiver copies ledger entries into PostgreSQL as they are published
// on the event bus.
type Archiver struct {
	db     *sql.DB
	logger *logrus.Logger
}

type ArchiverOption func(*Archiver)

func WithLogger(logger *logrus.Logger) ArchiverOption {
	return func(a *Archiver) {
		a.logger = logger
	}
}

// New connects to the archive database and ensures the archive table
// exists.
func New(dsn string, opts ...ArchiverOption) (*Archiver, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	if _, err := db.Exec(createArchiveTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive table: %w", err)
	}

	a := &Archiver{db: db, logger: logrus.New()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run consumes bus events until the channel closes or the context is
// cancelled. Only events that carry a ledger entry are archived.
func (a *Archiver) Run(ctx context.Context, sub <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			data, ok := event.Data.(map[string]interface{})
			if !ok {
				continue
			}
			entry, ok := data["log"].(*store.AccessLog)
			if !ok {
				continue
			}
			if err := a.archive(ctx, entry); err != nil {
				a.logger.WithFields(logrus.Fields{
					"log_id": entry.ID,
					"error":  err.Error(),
				}).Warn("Failed to archive ledger entry")
			}
		}
	}
}

func (a *Archiver) archive(ctx context.Context, entry *store.AccessLog) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO access_log_archive
			(id, vehicle_id, user_id, visitor_id, gate_id, timestamp, action, auth_method, status, reason, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.VehicleID, entry.UserID, entry.VisitorID, entry.GateID,
		entry.Timestamp, string(entry.Action), string(entry.AuthMethod),
		string(entry.Status), entry.Reason, entry.ProcessedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive row: %w", err)
	}
	return nil
}

// Health checks the archive database connection.
func (a *Archiver) Health() error {
	return a.db.Ping()
}

func (a *Archiver) Close() error {
	return a.db.Close()
}
