package shared

import (
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("RunMigrations", func(t *testing.T) {
		t.Run("creates the schema", func(t *testing.T) {
			db, err := NewDatabase(":memory:")
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			defer db.Close()

			if err := RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}

			for _, table := range []string{"recommendations", "recommendations_sequence", "schema_migrations"} {
				var name string
				err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
				if err != nil {
					t.Errorf("expected table %s to exist: %v", table, err)
				}
			}

			var seed int
			if err := db.QueryRow("SELECT value FROM recommendations_sequence WHERE id = 1").Scan(&seed); err != nil {
				t.Fatalf("expected seeded sequence row: %v", err)
			}
			if seed != 0 {
				t.Errorf("expected sequence seeded at 0, got %d", seed)
			}
		})

		t.Run("is idempotent", func(t *testing.T) {
			db, err := NewDatabase(":memory:")
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			defer db.Close()

			if err := RunMigrations(db); err != nil {
				t.Fatalf("first run failed: %v", err)
			}
			if err := RunMigrations(db); err != nil {
				t.Fatalf("second run failed: %v", err)
			}
		})
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to roll back: %v", err)
		}

		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = 'recommendations'").Scan(&name)
		if err == nil {
			t.Error("expected recommendations table to be dropped after rollback")
		}
	})

	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one embedded migration")
		}
		for _, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration %d missing up or down SQL", m.Version)
			}
		}
	})
}
