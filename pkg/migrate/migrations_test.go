package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localkart/localkart-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestCatalogMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_catalog.sql")

	checks := []string{
		"CREATE TABLE brands",
		"CREATE TABLE products",
		"CREATE TABLE product_offers",
		"mrp numeric(12,2) NOT NULL CHECK (mrp > 0)",
		"discount_percent numeric(5,2)",
		"UNIQUE (product_id, min_qty)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationFreezesMoneyColumns(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"order_number text NOT NULL UNIQUE",
		"otp text NOT NULL",
		"otp_verified boolean NOT NULL DEFAULT false",
		"subtotal numeric(12,2) NOT NULL",
		"unit_price numeric(12,2) NOT NULL",
		"qty integer NOT NULL CHECK (qty >= 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
