//go:build !integration

package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedScriptsArePaired(t *testing.T) {
	names, err := fs.Glob(files, "sql/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", n)
		}
	}
	if len(ups) == 0 {
		t.Fatal("expected at least one migration")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down script", v)
		}
	}
}

func TestInvoiceIDIsNotUnique(t *testing.T) {
	b, err := fs.ReadFile(files, "sql/0001_init.up.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	schema := string(b)
	if strings.Contains(schema, "invoice_id      TEXT NOT NULL UNIQUE") {
		t.Error("invoice_id must accept repeated deliveries")
	}
	if !strings.Contains(schema, "subscription_id TEXT NOT NULL UNIQUE") {
		t.Error("subscriptions must be keyed by the provider id")
	}
}
