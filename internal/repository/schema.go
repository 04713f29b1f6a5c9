package repository

// Schema definitions for the Harrier database.
// Compatible with both SQLite and PostgreSQL.

// schemaProfiles defines the detection profiles table. A profile names a
// stored processor/detector/filter configuration; analysis results are
// never written here.
const schemaProfiles = `
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    dataset_type TEXT NOT NULL,
    processor TEXT NOT NULL,
    detector TEXT NOT NULL,
    filter TEXT,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_enabled ON profiles(enabled);
CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaProfiles,
	}
}
