package store

// Schema is applied on every open; all statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS signals (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    source           TEXT NOT NULL,
    url              TEXT NOT NULL UNIQUE,
    title            TEXT NOT NULL DEFAULT '',
    snippet          TEXT NOT NULL DEFAULT '',
    detected_company TEXT NOT NULL DEFAULT '',
    detected_domain  TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichments (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    signal_url        TEXT NOT NULL UNIQUE REFERENCES signals(url),
    domain            TEXT NOT NULL,
    tech_hints        TEXT NOT NULL DEFAULT '{}',
    company_size_hint TEXT NOT NULL DEFAULT 'unknown',
    hiring_roles      TEXT NOT NULL DEFAULT '[]',
    updated_at        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    signal_url TEXT NOT NULL UNIQUE REFERENCES signals(url),
    score      INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
    reasons    TEXT NOT NULL DEFAULT '[]',
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC);

CREATE TABLE IF NOT EXISTS outreach (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    signal_url TEXT NOT NULL REFERENCES signals(url),
    channel    TEXT NOT NULL,
    message    TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'sent', 'failed')),
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outreach_signal ON outreach(signal_url, created_at DESC);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    mode        TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'running',
    signals     INTEGER NOT NULL DEFAULT 0,
    new_signals INTEGER NOT NULL DEFAULT 0,
    enrichments INTEGER NOT NULL DEFAULT 0,
    scores      INTEGER NOT NULL DEFAULT 0,
    drafts      INTEGER NOT NULL DEFAULT 0,
    notified    INTEGER NOT NULL DEFAULT 0,
    failures    INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    finished_at INTEGER
);
`
