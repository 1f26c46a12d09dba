package store

const CreateTables string = `
	CREATE TABLE IF NOT EXISTS "participants" (
		"id"	TEXT NOT NULL UNIQUE,
		"name"	TEXT NOT NULL,
		"added_at"	INTEGER NOT NULL,
		"balance"	INTEGER NOT NULL DEFAULT 10000,
		"sort_order"	INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY("id")
	);
	CREATE TABLE IF NOT EXISTS "game" (
		"id"	TEXT NOT NULL UNIQUE,
		"current_round"	INTEGER NOT NULL,
		"total_rounds"	INTEGER NOT NULL,
		"is_complete"	INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY("id")
	);
	CREATE TABLE IF NOT EXISTS "bets" (
		"id"	TEXT NOT NULL UNIQUE,
		"round_number"	INTEGER NOT NULL,
		"bettor_id"	TEXT NOT NULL,
		"target_id"	TEXT NOT NULL,
		"amount"	INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY("id")
	);
	CREATE TABLE IF NOT EXISTS "rounds" (
		"id"	TEXT NOT NULL UNIQUE,
		"round_number"	INTEGER NOT NULL,
		"winner_id"	TEXT NOT NULL,
		"winner_name"	TEXT NOT NULL,
		"pool"	INTEGER NOT NULL,
		"total_bets_on_winner"	INTEGER NOT NULL,
		"settled_at"	INTEGER NOT NULL,
		PRIMARY KEY("id")
	);
	CREATE TABLE IF NOT EXISTS "round_bets" (
		"round_id"	TEXT NOT NULL,
		"position"	INTEGER NOT NULL,
		"bettor_id"	TEXT NOT NULL,
		"bettor_name"	TEXT NOT NULL,
		"target_id"	TEXT NOT NULL,
		"target_name"	TEXT NOT NULL,
		"amount"	INTEGER NOT NULL,
		"payout"	INTEGER NOT NULL,
		"balance_delta"	INTEGER NOT NULL,
		PRIMARY KEY("round_id", "position")
	);
	CREATE TABLE IF NOT EXISTS "settings" (
		"id"	TEXT NOT NULL UNIQUE,
		"audio_volume"	INTEGER NOT NULL,
		"audio_track"	TEXT NOT NULL,
		"spin_direction"	TEXT NOT NULL,
		PRIMARY KEY("id")
	);
	`
const CreateIndexes string = `
	CREATE INDEX IF NOT EXISTS "participant_order" ON "participants" ( "sort_order" ASC );
	CREATE INDEX IF NOT EXISTS "bet_round_number" ON "bets" ( "round_number" ASC );
	CREATE INDEX IF NOT EXISTS "bet_bettor_id" ON "bets" ( "bettor_id" ASC );
	CREATE INDEX IF NOT EXISTS "bet_target_id" ON "bets" ( "target_id" ASC );
	CREATE INDEX IF NOT EXISTS "round_round_number" ON "rounds" ( "round_number" ASC );
`

const (
	gameRowID     = "game"
	settingsRowID = "app"
)
