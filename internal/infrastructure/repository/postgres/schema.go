package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Arbitrary but stable application-wide advisory lock key.
const schemaLockKey = 874211039

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ledamoter (
	id       TEXT PRIMARY KEY,
	namn     TEXT NOT NULL,
	parti    TEXT NOT NULL DEFAULT '',
	valkrets TEXT NOT NULL DEFAULT '',
	kon      TEXT NOT NULL DEFAULT '',
	fodd_ar  INTEGER NOT NULL DEFAULT 0,
	bild_url TEXT,
	status   TEXT
)`,
	`CREATE TABLE IF NOT EXISTS motioner (
	id           TEXT PRIMARY KEY,
	ledamot_id   TEXT,
	titel        TEXT NOT NULL DEFAULT '',
	datum        TIMESTAMPTZ NOT NULL,
	riksmote     TEXT NOT NULL DEFAULT '',
	dokument_typ TEXT NOT NULL DEFAULT '',
	fulltext     TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS voteringar (
	votering_id TEXT NOT NULL,
	dokument_id TEXT NOT NULL DEFAULT '',
	ledamot_id  TEXT NOT NULL,
	datum       TIMESTAMPTZ NOT NULL,
	titel       TEXT NOT NULL DEFAULT '',
	rost        TEXT NOT NULL DEFAULT '',
	riksmote    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (votering_id, ledamot_id)
)`,
	`CREATE TABLE IF NOT EXISTS anforanden (
	anforande_id TEXT PRIMARY KEY,
	ledamot_id   TEXT NOT NULL,
	debatt_id    TEXT,
	titel        TEXT,
	text         TEXT NOT NULL DEFAULT '',
	datum        TIMESTAMPTZ NOT NULL,
	parti        TEXT
)`,
	`CREATE TABLE IF NOT EXISTS batch_jobs (
	job_id             TEXT PRIMARY KEY,
	kind               TEXT NOT NULL,
	item_count         INTEGER NOT NULL,
	estimated_cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	status             TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL,
	completed_at       TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS motion_kvalitet (
	motion_id            TEXT PRIMARY KEY,
	har_konkreta_forslag INTEGER NOT NULL,
	har_kostnader        INTEGER NOT NULL,
	har_specifika_mal    INTEGER NOT NULL,
	har_lagtext          INTEGER NOT NULL,
	har_implementation   INTEGER NOT NULL,
	substantiell_score   DOUBLE PRECISION NOT NULL,
	kategori             TEXT NOT NULL,
	sammanfattning       TEXT NOT NULL DEFAULT '',
	analyzed_at          TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS franvaro_analys (
	ledamot_id         TEXT PRIMARY KEY,
	kategorier         JSONB NOT NULL,
	total_voteringar   INTEGER NOT NULL,
	total_franvaro     INTEGER NOT NULL,
	franvaro_procent   DOUBLE PRECISION NOT NULL,
	overall_assessment TEXT NOT NULL DEFAULT '',
	red_flags          JSONB,
	analyzed_at        TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS retorik_analys (
	ledamot_id         TEXT PRIMARY KEY,
	topics_analyzed    JSONB NOT NULL,
	overall_gap_score  INTEGER NOT NULL,
	assessment         TEXT NOT NULL DEFAULT '',
	credibility_issues JSONB,
	analyzed_at        TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_voteringar_ledamot ON voteringar (ledamot_id, datum DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_anforanden_ledamot ON anforanden (ledamot_id, datum DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_motioner_riksmote ON motioner (riksmote)`,
	`CREATE INDEX IF NOT EXISTS idx_batch_jobs_status ON batch_jobs (status)`,
}

// EnsureSchema creates all tables if missing. An advisory lock
// serializes concurrent starts of api and worker against the same
// database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, schemaLockKey)

	for _, statement := range schemaStatements {
		if _, err := conn.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
