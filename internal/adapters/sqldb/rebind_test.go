package sqldb

import "testing"

func TestRebindPostgres(t *testing.T) {
	db := &DB{driver: DriverPostgres}
	got := db.Rebind(`SELECT COUNT(*) FROM rate_limits WHERE "key" = ? AND endpoint = ? AND created_at >= ?`)
	want := `SELECT COUNT(*) FROM rate_limits WHERE "key" = $1 AND endpoint = $2 AND created_at >= $3`
	if got != want {
		t.Fatalf("Rebind() = %q, want %q", got, want)
	}
}
