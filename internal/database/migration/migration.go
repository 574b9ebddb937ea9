package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id              UUID        PRIMARY KEY,
  name            TEXT        NOT NULL,
  email           TEXT        NOT NULL UNIQUE,
  password_hash   TEXT        NOT NULL,
  bio             TEXT        NOT NULL DEFAULT '',
  profile_picture TEXT        NOT NULL DEFAULT '',
  points          INTEGER     NOT NULL DEFAULT 0 CHECK (points >= 0),
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_materials",
		SQL: `CREATE TABLE IF NOT EXISTS materials (
  id            UUID        PRIMARY KEY,
  title         TEXT        NOT NULL,
  description   TEXT        NOT NULL,
  category      TEXT        NOT NULL,
  academic_year TEXT        NOT NULL,
  file_key      TEXT        NOT NULL UNIQUE,
  file_name     TEXT        NOT NULL,
  uploader_id   UUID        NOT NULL,
  uploader_name TEXT        NOT NULL DEFAULT '',
  upvotes       INTEGER     NOT NULL DEFAULT 0 CHECK (upvotes >= 0),
  downvotes     INTEGER     NOT NULL DEFAULT 0 CHECK (downvotes >= 0),
  seq           BIGSERIAL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_material_votes",
		SQL: `CREATE TABLE IF NOT EXISTS material_votes (
  material_id UUID        NOT NULL REFERENCES materials (id) ON DELETE CASCADE,
  user_id     TEXT        NOT NULL,
  vote_type   TEXT        NOT NULL CHECK (vote_type IN ('upvote', 'downvote')),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (material_id, user_id)
);`,
	},
	{
		Name: "create_table_reports",
		SQL: `CREATE TABLE IF NOT EXISTS reports (
  id          UUID        PRIMARY KEY,
  material_id UUID        NOT NULL REFERENCES materials (id) ON DELETE CASCADE,
  reported_by TEXT        NOT NULL,
  reason      TEXT        NOT NULL,
  status      TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'reviewed', 'resolved')),
  seq         BIGSERIAL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_materials_uploader",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_materials_uploader ON materials (uploader_id);`,
	},
	{
		Name: "create_index_materials_category_year",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_materials_category_year ON materials (category, academic_year);`,
	},
	{
		Name: "create_index_materials_popular",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_materials_popular ON materials (upvotes DESC, seq ASC);`,
	},
	{
		Name: "create_index_reports_material",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reports_material ON reports (material_id, seq);`,
	},
}

// EnsureMigrated checks if the 'materials' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.materials') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
