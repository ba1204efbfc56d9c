package storage

import (
	"errors"
	"testing"
)

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("DB_NAME", "kanmind")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "api")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_SSLMODE", "disable")

	dsn, err := DSNFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "dbname=kanmind host=db.internal port=5433 user=api sslmode=disable"
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}
}

func TestDSNFromEnvRequiresName(t *testing.T) {
	t.Setenv("DB_NAME", "")
	if _, err := DSNFromEnv(); err == nil {
		t.Fatal("expected error when DB_NAME is unset")
	}
}

func TestNotFoundErrorMatching(t *testing.T) {
	err := error(NotFoundError{Entity: "board", ID: 7})

	var nf NotFoundError
	if !errors.As(err, &nf) {
		t.Fatal("expected errors.As to match NotFoundError")
	}
	if nf.Entity != "board" || nf.ID != 7 {
		t.Fatalf("unexpected fields: %+v", nf)
	}
	if err.Error() != "board 7 not found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	if errors.As(errors.New("plain"), &nf) {
		t.Fatal("plain error must not match NotFoundError")
	}
}

func TestDedupePreservesOrder(t *testing.T) {
	got := dedupe([]int64{3, 1, 3, 2, 1})
	want := []int64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("dedupe returned %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupe[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
