package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIDRange_Next(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if id := AlertIDs.Next(); !AlertIDs.Contains(id) {
			t.Fatalf("alert id %d outside range", id)
		}
		if id := RecordIDs.Next(); !RecordIDs.Contains(id) {
			t.Fatalf("record id %d outside range", id)
		}
	}
}

func TestInsertWithID_RetriesOnCollision(t *testing.T) {
	calls := 0
	id, err := InsertWithID(RecordIDs, func(int) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if !RecordIDs.Contains(id) {
		t.Errorf("id %d outside range", id)
	}
}

func TestInsertWithID_Exhausted(t *testing.T) {
	_, err := InsertWithID(RecordIDs, func(int) (bool, error) { return false, nil })
	if !errors.Is(err, ErrIDSpaceExhausted) {
		t.Errorf("expected ErrIDSpaceExhausted, got %v", err)
	}
}

func TestInsertWithID_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := InsertWithID(RecordIDs, func(int) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("expected single failing attempt, got %d calls, err %v", calls, err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "patient_cpf_key"}
	if !IsUniqueViolation(err, "") {
		t.Error("expected unique violation")
	}
	if !IsUniqueViolation(err, "_cpf_key") {
		t.Error("expected suffix match")
	}
	if IsUniqueViolation(err, "_pkey") {
		t.Error("unexpected pkey match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain"), "") {
		t.Error("plain error is not a unique violation")
	}
}
