package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meshkit/telemetry/pkg/event"
)

const defaultSQLTable = "telemetry_events"

// SQLSink inserts events into a relational table through database/sql.
// Works with any registered driver; the daemon wires postgres (lib/pq) and
// sqlite (mattn/go-sqlite3).
type SQLSink struct {
	db    *sql.DB
	table string
}

// NewSQLSink creates a SQL sink. An empty table defaults to
// "telemetry_events".
func NewSQLSink(db *sql.DB, table string) *SQLSink {
	if table == "" {
		table = defaultSQLTable
	}
	return &SQLSink{db: db, table: table}
}

func (s *SQLSink) Name() string { return "sql" }

// DB exposes the underlying handle for health probes
func (s *SQLSink) DB() *sql.DB { return s.db }

// EnsureSchema creates the events table when it does not exist. The schema
// keeps attributes as a JSON document so every event kind fits one table.
func (s *SQLSink) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          INTEGER PRIMARY KEY,
		kind        TEXT NOT NULL,
		session_ref TEXT NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		attrs       TEXT NOT NULL
	)`, s.table)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Deliver inserts the batch in one transaction. Any insert failure rolls
// the whole batch back so the collector can re-queue it intact.
func (s *SQLSink) Deliver(ctx context.Context, batch event.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (kind, session_ref, occurred_at, attrs) VALUES ($1, $2, $3, $4)", s.table))
	if err != nil {
		tx.Rollback()
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}
	defer stmt.Close()

	for _, ev := range batch {
		attrs, err := json.Marshal(ev.Attrs)
		if err != nil {
			tx.Rollback()
			return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
		}
		if _, err := stmt.ExecContext(ctx, string(ev.Kind), ev.SessionRef, ev.Timestamp, attrs); err != nil {
			tx.Rollback()
			return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &DeliveryError{Sink: s.Name(), Events: len(batch), Err: err}
	}
	return nil
}
