package db

import (
	"strings"
	"testing"

	"musiclib/config"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(&config.Config{
		DBUser:     "music",
		DBPassword: "s3cret",
		DBHost:     "db.local",
		DBPort:     "3307",
		DBName:     "library",
	})
	for _, want := range []string{"music:s3cret@tcp(db.local:3307)/library", "parseTime=true", "clientFoundRows=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(&config.Config{DBDriver: "postgres"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(&config.Config{DBDriver: "sqlite", DBPath: t.TempDir() + "/lib.db", DBLogLevel: "silent"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(gdb)

	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"tracks", "track_playlists", "user_playlists", "users"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %s not created", table)
		}
	}
	if err := Ping(gdb); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	gdb, err := Open(&config.Config{DBDriver: "sqlite", DBPath: t.TempDir() + "/lib.db", DBLogLevel: "silent"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(gdb)

	var got string
	if err := gdb.Raw("SELECT LOWER(?)", "ÉMILE Ölçü").Scan(&got).Error; err != nil {
		t.Fatalf("select lower: %v", err)
	}
	if want := "émile ölçü"; got != want {
		t.Errorf("LOWER = %q, want %q", got, want)
	}
}
