package sqlite

import "testing"

func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	if _, err := db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO t (v) VALUES (?)", "hello"); err != nil {
		t.Fatalf("INSERT error = %v", err)
	}

	var v string
	if err := db.QueryRow("SELECT v FROM t WHERE id = 1").Scan(&v); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if v != "hello" {
		t.Errorf("v = %q, want %q", v, "hello")
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: %q vs %q", info.DriverName, DriverName())
	}
	if info.DriverType != "purego" && info.DriverType != "cgo" {
		t.Errorf("unexpected driver type %q", info.DriverType)
	}
}
