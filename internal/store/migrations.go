package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS external_links (
	id               TEXT PRIMARY KEY,
	ticket_id        TEXT NOT NULL,
	integration_type TEXT NOT NULL CHECK(integration_type IN ('AZURE_DEVOPS', 'GITHUB', 'JIRA')),
	external_id      TEXT NOT NULL,
	url              TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(ticket_id, integration_type)
);

CREATE INDEX IF NOT EXISTS idx_external_links_ticket_id ON external_links(ticket_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS sync_log (
	id               TEXT PRIMARY KEY,
	ticket_id        TEXT NOT NULL,
	integration_type TEXT NOT NULL,
	operation        TEXT NOT NULL,
	external_id      TEXT NOT NULL DEFAULT '',
	succeeded        INTEGER NOT NULL DEFAULT 0 CHECK(succeeded IN (0, 1)),
	error            TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_log_ticket_id ON sync_log(ticket_id);
CREATE INDEX IF NOT EXISTS idx_sync_log_created ON sync_log(created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
