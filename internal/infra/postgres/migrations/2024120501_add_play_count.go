package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `ALTER TABLE quizzes ADD COLUMN IF NOT EXISTS play_count BIGINT NOT NULL DEFAULT 0`)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `ALTER TABLE quizzes DROP COLUMN IF EXISTS play_count`)
			return err
		},
	)
}
