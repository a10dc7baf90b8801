package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/smith3v/tg-journal-bot/pkg/config"
	"github.com/smith3v/tg-journal-bot/pkg/db"
)

var dsnNameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// SetupTestDB opens a migrated in-memory sqlite store private to the test.
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dsnNameReplacer.Replace(t.Name()))
	store, err := db.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: dsn}, "silent")
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})
	return store
}
