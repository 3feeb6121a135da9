package db_test

import (
	"context"
	"testing"

	dbfs "github.com/garnizeh/intake/db"
	"github.com/garnizeh/intake/internal/db"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()

	d, err := db.New(ctx, "file:migrate_idempotent?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	defer d.Close()

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	// staff edits a seeded setting; a second run must not overwrite it
	if _, err := d.Exec(ctx, `UPDATE site_settings SET value = '"Changed"' WHERE key = 'company_name'`); err != nil {
		t.Fatalf("update setting: %v", err)
	}

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("scan schema_migrations count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 migrations recorded, got %d", count)
	}

	for _, table := range []string{"quote_requests", "job_listings", "applications", "contact_messages", "uploads", "jobs", "dead_letter_jobs"} {
		var name string
		row := d.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table)
		if err := row.Scan(&name); err != nil {
			t.Fatalf("expected %s table exists: %v", table, err)
		}
	}

	var value string
	if err := d.QueryRow(ctx, `SELECT value FROM site_settings WHERE key = 'company_name'`).Scan(&value); err != nil {
		t.Fatalf("read setting: %v", err)
	}
	if value != `"Changed"` {
		t.Fatalf("seed overwrote staff value: %s", value)
	}
}
