package database

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    upload_root TEXT NOT NULL DEFAULT '',
    output_root TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS crop_results (
    session_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    original_name TEXT NOT NULL,
    output_name TEXT NOT NULL DEFAULT '',
    ok INTEGER NOT NULL DEFAULT 0,
    reason TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (session_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions (created_at);
`
