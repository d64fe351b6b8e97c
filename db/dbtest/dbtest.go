// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"musiclib/config"
	"musiclib/db"

	"gorm.io/gorm"
)

// Open returns a migrated database living in t.TempDir().
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:   "sqlite",
		DBPath:     filepath.Join(t.TempDir(), "test.db"),
		DBLogLevel: "silent",
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
