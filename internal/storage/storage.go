// Package storage persists scan verdicts to MySQL for reporting and
// model-tuning feedback. Persistence is best-effort: a storage failure
// never fails a scan.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

// New opens a MySQL connection using the provided URL and limits the
// number of open connections.
func New(dbURL string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("mysql", dbURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Store wraps a sql.DB with the verdict persistence queries.
type Store struct{ DB *sql.DB }

// NewStore creates a Store using the provided DB.
func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// SaveVerdict persists a verdict and its findings in one transaction,
// returning the generated scan ID. The results are named so the deferred
// commit can report its error to the caller.
func (s *Store) SaveVerdict(ctx context.Context, correlationID, source string, v *types.Verdict) (id int64, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			id = 0
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO scans
        (correlation_id, source, prediction, probability, ml_score, url_risk_score, forensics_score, reason, scanned_at)
        VALUES (?,?,?,?,?,?,?,?,?)`,
		correlationID, source, v.Prediction, v.Probability, v.MLScore,
		v.URLRiskScore, v.ForensicsScore, v.Reason, time.Now())
	if err != nil {
		return 0, err
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, set := range [][]types.Finding{v.ForensicsFindings, v.URLFindings} {
		for _, f := range set {
			if _, err = tx.ExecContext(ctx, `INSERT INTO scan_findings
                (scan_id, category, severity, message) VALUES (?,?,?,?)`,
				scanID, string(f.Category), string(f.Severity), f.Message); err != nil {
				return 0, err
			}
		}
	}

	id = scanID
	return id, nil
}
