package models

import (
	"os"
)

// InitializeTestDb creates a fresh encrypted sqlite db in a temp directory.
// Every call replaces the package db, so tests start from seed data only.
func InitializeTestDb() {
	dir, err := os.MkdirTemp("", "raksha-test-")
	if err != nil {
		logg.Panic(err)
	}

	err = AutoMigrate("test-pass-phrase", dir)
	if err != nil {
		logg.Panic(err)
	}
}
