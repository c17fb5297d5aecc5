package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/akashahram/Phishing-Email-Detector/internal/types"
)

func verdict() *types.Verdict {
	return &types.Verdict{
		Prediction:     1,
		Probability:    0.82,
		Reason:         "sender authentication failed",
		MLScore:        0.4,
		URLRiskScore:   0.7,
		ForensicsScore: 0.82,
		ForensicsFindings: []types.Finding{
			types.NewFinding(types.CategoryAuth, types.SeverityHigh, "DMARC policy evaluation failed"),
		},
	}
}

func TestSaveVerdict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").
		WithArgs("corr-1", "api", 1, 0.82, 0.4, 0.7, 0.82,
			"sender authentication failed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO scan_findings").
		WithArgs(int64(7), "auth", "high", "DMARC policy evaluation failed").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := NewStore(db)
	id, err := store.SaveVerdict(context.Background(), "corr-1", "api", verdict())
	if err != nil {
		t.Fatalf("SaveVerdict returned error: %v", err)
	}
	if id != 7 {
		t.Errorf("expected id 7 got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveVerdictCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	commitErr := errors.New("connection reset during commit")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO scan_findings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(commitErr)

	store := NewStore(db)
	id, err := store.SaveVerdict(context.Background(), "corr-1", "api", verdict())
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if id != 0 {
		t.Errorf("expected id 0 after failed commit, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveVerdictInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scans").
		WillReturnError(errors.New("table missing"))
	mock.ExpectRollback()

	store := NewStore(db)
	if _, err := store.SaveVerdict(context.Background(), "corr-1", "api", verdict()); err == nil {
		t.Fatal("expected error from failed insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
