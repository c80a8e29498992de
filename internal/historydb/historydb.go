// Package historydb keeps an append-only SQLite audit trail of diagnosis
// outcomes. It exists for traceability and the health trend endpoints; the
// statistical models never read from it.
package historydb

import (
	"database/sql"
	_ "embed"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/torque.report/internal/monitoring"
)

// schema.sql defines the diagnosis_history table and its query indexes.
//
//go:embed schema.sql
var schemaSQL string

// DB wraps the history database connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the history database at path and applies the
// embedded schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("initialized diagnosis history schema at %s", path)
	return &DB{db}, nil
}

// Record is one persisted diagnosis outcome.
type Record struct {
	HistoryID      int64   `json:"history_id"`
	BatchID        string  `json:"batch_id"`
	CarrierID      string  `json:"carrier_id"`
	HoleID         string  `json:"hole_id"`
	Status         string  `json:"status"`
	ECode          string  `json:"e_code"`
	HealthScore    float64 `json:"health_score"`
	TakenUnixNanos int64   `json:"taken_unix_nanos"`
}

// RecordDiagnosis appends one outcome. Implements torque.HistorySink.
func (d *DB) RecordDiagnosis(batchID, carrierID, holeID, status, eCode string, health float64) error {
	stmt := `INSERT INTO diagnosis_history (batch_id, carrier_id, hole_id, status, e_code, health_score, taken_unix_nanos)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := d.Exec(stmt, batchID, carrierID, holeID, status, eCode, health, time.Now().UnixNano())
	return err
}

// RecentByCarrier returns up to limit most recent records for a carrier,
// newest first.
func (d *DB) RecentByCarrier(carrierID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt := `SELECT history_id, batch_id, carrier_id, hole_id, status, e_code, health_score, taken_unix_nanos
			 FROM diagnosis_history
			 WHERE carrier_id = ?
			 ORDER BY taken_unix_nanos DESC
			 LIMIT ?`
	rows, err := d.Query(stmt, carrierID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// RecentByHole returns up to limit most recent records for one hole on a
// carrier, newest first.
func (d *DB) RecentByHole(carrierID, holeID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt := `SELECT history_id, batch_id, carrier_id, hole_id, status, e_code, health_score, taken_unix_nanos
			 FROM diagnosis_history
			 WHERE carrier_id = ? AND hole_id = ?
			 ORDER BY taken_unix_nanos DESC
			 LIMIT ?`
	rows, err := d.Query(stmt, carrierID, holeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var eCode sql.NullString
		var health sql.NullFloat64
		if err := rows.Scan(&r.HistoryID, &r.BatchID, &r.CarrierID, &r.HoleID, &r.Status, &eCode, &health, &r.TakenUnixNanos); err != nil {
			return nil, err
		}
		r.ECode = eCode.String
		r.HealthScore = health.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}
