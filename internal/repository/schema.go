package repository

// Schema definitions for the Typeboard database.
// Compatible with both SQLite and PostgreSQL.

// schemaCatalogEntries holds operator overrides for recommendation tables.
// entry is the JSON encoding of domain.Entry.
const schemaCatalogEntries = `
CREATE TABLE IF NOT EXISTS catalog_entries (
    table_id TEXT NOT NULL,
    category TEXT NOT NULL,
    entry TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (table_id, category)
);

CREATE INDEX IF NOT EXISTS idx_catalog_entries_table ON catalog_entries(table_id);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaCatalogEntries,
	}
}
