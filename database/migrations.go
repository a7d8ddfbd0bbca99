// minber/database/migrations.go
package database

// migration represents a single SQLite schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds schema changes applied on top of the base schema,
// in order. The Postgres primary is migrated with goose instead; see
// migrations/postgres.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bans_user_active ON user_bans(user_id, is_active);
		`,
	},
	{
		Version: 2,
		Query: `
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_requests_user ON prayer_requests(user_id);
		`,
	},
}
