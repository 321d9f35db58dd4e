package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS fetch_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source      TEXT NOT NULL,
    viewer_id   TEXT NOT NULL DEFAULT '',
    outcome     TEXT NOT NULL,
    order_count INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_source ON fetch_log(source);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS fetch_log (
    id          BIGSERIAL PRIMARY KEY,
    source      TEXT NOT NULL,
    viewer_id   TEXT NOT NULL DEFAULT '',
    outcome     TEXT NOT NULL,
    order_count INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_source ON fetch_log(source);
`
