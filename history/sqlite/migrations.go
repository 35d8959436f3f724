package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the history store (SQLite).
var Migrations = migrate.NewGroup("vesting_history")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_history",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_history (
    id          TEXT PRIMARY KEY,
    action      TEXT NOT NULL DEFAULT '',
    resource    TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    resource_id TEXT NOT NULL DEFAULT '',
    outcome     TEXT NOT NULL DEFAULT '',
    severity    TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL DEFAULT '',
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vesting_history_resource ON vesting_history (resource, resource_id, created_at);
CREATE INDEX IF NOT EXISTS idx_vesting_history_action ON vesting_history (action, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_history`)
				return err
			},
		},
	)
}
