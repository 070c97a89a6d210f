package state

import "strings"

// Dialect picks the handful of statements that differ between databases.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor maps a database/sql driver name to a dialect.
func DialectFor(driverName string) Dialect {
	if driverName == "sqlite3" {
		return SQLite
	}
	return Postgres
}

// The tables are shared; {{timestamp}} is the only column type that differs.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS league_nights (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	night_date {{timestamp}} NOT NULL,
	tie_break_mode TEXT NOT NULL DEFAULT 'SPLIT',
	total_holes INTEGER NOT NULL,
	version BIGINT NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS divisions (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	entry_fee BIGINT NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS players (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	division_id TEXT NOT NULL REFERENCES divisions(id)
)`,
	`CREATE TABLE IF NOT EXISTS check_ins (
	league_night_id TEXT NOT NULL REFERENCES league_nights(id),
	player_id TEXT NOT NULL REFERENCES players(id),
	division_id TEXT NOT NULL REFERENCES divisions(id),
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	seq BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (league_night_id, player_id)
)`,
	`CREATE TABLE IF NOT EXISTS shot_results (
	league_night_id TEXT NOT NULL REFERENCES league_nights(id),
	player_id TEXT NOT NULL,
	hole_id TEXT NOT NULL,
	round_id TEXT NOT NULL,
	position TEXT NOT NULL,
	made INTEGER NOT NULL CHECK (made BETWEEN 0 AND 3),
	bonus BOOLEAN NOT NULL,
	entered_by TEXT NOT NULL DEFAULT '',
	entered_at {{timestamp}} NOT NULL,
	PRIMARY KEY (league_night_id, player_id, hole_id, round_id, position)
)`,
	`CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	league_night_id TEXT NOT NULL REFERENCES league_nights(id),
	name TEXT NOT NULL,
	starting_hole INTEGER NOT NULL,
	scorekeeper_id TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS card_players (
	card_id TEXT NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	player_id TEXT NOT NULL,
	sort_order INTEGER NOT NULL,
	PRIMARY KEY (card_id, player_id)
)`,
	`CREATE TABLE IF NOT EXISTS putt_offs (
	id TEXT PRIMARY KEY,
	league_night_id TEXT NOT NULL REFERENCES league_nights(id),
	division_id TEXT NOT NULL,
	current_round INTEGER NOT NULL,
	status TEXT NOT NULL,
	winner_id TEXT NOT NULL DEFAULT '',
	created_at {{timestamp}} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS putt_off_participants (
	putt_off_id TEXT NOT NULL REFERENCES putt_offs(id) ON DELETE CASCADE,
	player_id TEXT NOT NULL,
	round INTEGER NOT NULL,
	made INTEGER NOT NULL DEFAULT 0,
	bonus BOOLEAN NOT NULL DEFAULT FALSE,
	seq INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (putt_off_id, player_id, round)
)`,
}

// Postgres tells listeners when a night's version moves.  dbnotify picks
// these up on league_nights_changes.
var postgresNotify = []string{
	`CREATE OR REPLACE FUNCTION notify_league_night_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('league_nights_changes',
		json_build_object('Table', 'league_nights', 'OnID', NEW.id, 'Version', NEW.version)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS league_nights_notify ON league_nights`,
	`CREATE TRIGGER league_nights_notify
	AFTER UPDATE OF version ON league_nights
	FOR EACH ROW EXECUTE FUNCTION notify_league_night_change()`,
}

func (d Dialect) schema() []string {
	ts := "TIMESTAMPTZ"
	if d == SQLite {
		ts = "TIMESTAMP"
	}
	stmts := []string{}
	for _, t := range tables {
		stmts = append(stmts, strings.ReplaceAll(t, "{{timestamp}}", ts))
	}
	if d == Postgres {
		stmts = append(stmts, postgresNotify...)
	}
	return stmts
}
