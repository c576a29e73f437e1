package code

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/commitly/commitly/internal/config"
)

func testQueryConfig() config.QueryConfig {
	return config.QueryConfig{
		Sinks:   []string{".execute(", "cursor.execute(", "db.Query("},
		Dialect: "postgres",
	}
}

func TestScanFile(t *testing.T) {
	t.Run("finds a sink-adjacent SQL literal and records enclosing symbol", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "repo.py")
		content := "def get_user(id):\n    cursor.execute(\"SELECT * FROM users WHERE id = %s\", (id,))\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		sites, err := scanFile(path, testQueryConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sites) != 1 {
			t.Fatalf("expected 1 site, got %d", len(sites))
		}
		site := sites[0]
		if site.Symbol != "get_user" {
			t.Errorf("Symbol = %q, want get_user", site.Symbol)
		}
		if site.LineStart != 2 || site.LineEnd != 2 {
			t.Errorf("LineStart/LineEnd = %d/%d, want 2/2", site.LineStart, site.LineEnd)
		}
		if len(site.ReferencedTables) != 1 || site.ReferencedTables[0] != "users" {
			t.Errorf("ReferencedTables = %v, want [users]", site.ReferencedTables)
		}
	})

	t.Run("ignores non-SQL string literals near a sink", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "repo.py")
		content := "cursor.execute(\"not sql at all\")\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		sites, err := scanFile(path, testQueryConfig())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sites) != 0 {
			t.Errorf("expected no sites, got %v", sites)
		}
	})

	t.Run("unreadable file returns an error the caller skips", func(t *testing.T) {
		_, err := scanFile(filepath.Join(t.TempDir(), "missing.py"), testQueryConfig())
		if err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

func TestReferencedTables(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "simple FROM", query: "SELECT * FROM orders", want: []string{"orders"}},
		{name: "join adds second table", query: "SELECT * FROM orders JOIN customers ON orders.cid = customers.id",
			want: []string{"orders", "customers"}},
		{name: "dedups repeated table", query: "UPDATE orders SET x=1 WHERE id IN (SELECT id FROM orders)",
			want: []string{"orders"}},
		{name: "no table reference", query: "SELECT 1", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := referencedTables(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("referencedTables(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLooksLikeSQL(t *testing.T) {
	if !looksLikeSQL("select * from t") {
		t.Error("expected lowercase select to look like SQL")
	}
	if looksLikeSQL("just a log message") {
		t.Error("expected plain text to not look like SQL")
	}
}
