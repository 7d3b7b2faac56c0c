package sqlite

// schemaVersion is stored in PRAGMA user_version once the DDL has run.
const schemaVersion = 1

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Schema DDL. Statements are idempotent so several backends may attach to
// the same database file.
const (
	createDigitalObjects = `CREATE TABLE IF NOT EXISTS digital_objects (
    doid TEXT PRIMARY KEY,
    data BLOB,
    metadata JSON
);`

	createRelationships = `CREATE TABLE IF NOT EXISTS relationships (
    doid TEXT PRIMARY KEY,
    from_ddo_doids JSON NOT NULL,
    to_ddo_doids JSON NOT NULL,
    metadata JSON,
    created_at TEXT NOT NULL
);`
)

// Index DDL for relationship listing.
const (
	idxRelationshipsCreated = `CREATE INDEX IF NOT EXISTS idx_relationships_created ON relationships(created_at, doid);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createDigitalObjects,
	createRelationships,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRelationshipsCreated,
}
