package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type SQLite struct {
	logger *logrus.Logger
	db     *sql.DB
	q      queryer
	inTx   bool
}

// NewSQLite opens (and migrates) the database at dbName. The caller owns
// the connection and releases it with Close.
func NewSQLite(ctx context.Context, logger *logrus.Logger, dbName string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbName)
	if err != nil {
		return nil, &InternalError{Message: "Can't open database", Err: err}
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err = db.ExecContext(ctx, CreateTables); err != nil {
		db.Close()
		return nil, &InternalError{Message: "Can't create tables", Err: err}
	}
	if _, err = db.ExecContext(ctx, CreateIndexes); err != nil {
		db.Close()
		return nil, &InternalError{Message: "Can't create indexes", Err: err}
	}

	return &SQLite{logger: logger, db: db, q: db}, nil
}

func (s *SQLite) Close() error {
	if s.inTx {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return &InternalError{Message: "Can't close database", Err: err}
	}
	s.logger.Info("Database connection closed")
	return nil
}

func (s *SQLite) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &TransactionError{Err: err}
	}
	if err := fn(&SQLite{logger: s.logger, db: s.db, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Can't rollback transaction: ", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &TransactionError{Err: err}
	}
	return nil
}

func (s *SQLite) GetParticipants(ctx context.Context) ([]Participant, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, added_at, balance, sort_order FROM participants ORDER BY sort_order ASC, added_at ASC`)
	if err != nil {
		return nil, &InternalError{Message: "Can't read participants", Err: err}
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		var addedAt int64
		if err := rows.Scan(&p.ID, &p.Name, &addedAt, &p.Balance, &p.Order); err != nil {
			return nil, &InternalError{Message: "Can't read participant from db", Err: err}
		}
		p.AddedAt = time.Unix(0, addedAt).UTC()
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &InternalError{Message: "Can't read participants", Err: err}
	}
	return participants, nil
}

func (s *SQLite) PutParticipant(ctx context.Context, p Participant) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO participants(id, name, added_at, balance, sort_order) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, added_at=excluded.added_at,
			balance=excluded.balance, sort_order=excluded.sort_order`,
		p.ID, p.Name, p.AddedAt.UnixNano(), p.Balance, p.Order)
	if err != nil {
		return &InternalError{Message: "Error executing upsert participant db request", Err: err}
	}
	return nil
}

func (s *SQLite) DeleteParticipant(ctx context.Context, id string) error {
	return s.RunInTx(ctx, func(tx Repository) error {
		q := tx.(*SQLite).q
		if _, err := q.ExecContext(ctx, `DELETE FROM bets WHERE bettor_id = ? OR target_id = ?`, id, id); err != nil {
			return &InternalError{Message: "Error deleting participant bets", Err: err}
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id); err != nil {
			return &InternalError{Message: "Error deleting participant", Err: err}
		}
		return nil
	})
}

func (s *SQLite) GetGameState(ctx context.Context) (GameState, error) {
	var g GameState
	err := s.q.QueryRowContext(ctx,
		`SELECT current_round, total_rounds, is_complete FROM game WHERE id = ?`, gameRowID).
		Scan(&g.CurrentRound, &g.TotalRounds, &g.IsComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return GameState{}, &NotFoundError{Err: errors.New("Game state not found")}
	}
	if err != nil {
		return GameState{}, &InternalError{Message: "Can't read game state", Err: err}
	}
	return g, nil
}

func (s *SQLite) PutGameState(ctx context.Context, g GameState) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO game(id, current_round, total_rounds, is_complete) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET current_round=excluded.current_round,
			total_rounds=excluded.total_rounds, is_complete=excluded.is_complete`,
		gameRowID, g.CurrentRound, g.TotalRounds, g.IsComplete)
	if err != nil {
		return &InternalError{Message: "Error executing upsert game db request", Err: err}
	}
	return nil
}

func (s *SQLite) GetBets(ctx context.Context, roundNumber int) ([]RoundBet, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, round_number, bettor_id, target_id, amount FROM bets WHERE round_number = ? ORDER BY id`, roundNumber)
	if err != nil {
		return nil, &InternalError{Message: "Can't read bets", Err: err}
	}
	defer rows.Close()

	var bets []RoundBet
	for rows.Next() {
		var b RoundBet
		if err := rows.Scan(&b.ID, &b.RoundNumber, &b.BettorID, &b.TargetID, &b.Amount); err != nil {
			return nil, &InternalError{Message: "Can't read bet from db", Err: err}
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &InternalError{Message: "Can't read bets", Err: err}
	}
	return bets, nil
}

func (s *SQLite) PutBet(ctx context.Context, b RoundBet) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO bets(id, round_number, bettor_id, target_id, amount) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET round_number=excluded.round_number, bettor_id=excluded.bettor_id,
			target_id=excluded.target_id, amount=excluded.amount`,
		b.ID, b.RoundNumber, b.BettorID, b.TargetID, b.Amount)
	if err != nil {
		return &InternalError{Message: "Error executing upsert bet db request", Err: err}
	}
	return nil
}

func (s *SQLite) ClearBets(ctx context.Context, roundNumber int) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM bets WHERE round_number = ?`, roundNumber); err != nil {
		return &InternalError{Message: "Error clearing round bets", Err: err}
	}
	return nil
}

func (s *SQLite) ClearAllBets(ctx context.Context) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM bets`); err != nil {
		return &InternalError{Message: "Error clearing bets", Err: err}
	}
	return nil
}

func (s *SQLite) AppendRoundResult(ctx context.Context, r RoundResult) error {
	return s.RunInTx(ctx, func(tx Repository) error {
		q := tx.(*SQLite).q
		_, err := q.ExecContext(ctx,
			`INSERT INTO rounds(id, round_number, winner_id, winner_name, pool, total_bets_on_winner, settled_at)
			VALUES(?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.RoundNumber, r.WinnerID, r.WinnerName, r.Pool, r.TotalBetsOnWinner, r.SettledAt.UnixNano())
		if err != nil {
			return &InternalError{Message: "Error executing insert round db request", Err: err}
		}
		for i, b := range r.Bets {
			_, err := q.ExecContext(ctx,
				`INSERT INTO round_bets(round_id, position, bettor_id, bettor_name, target_id, target_name, amount, payout, balance_delta)
				VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, i, b.BettorID, b.BettorName, b.TargetID, b.TargetName, b.Amount, b.Payout, b.BalanceDelta)
			if err != nil {
				return &InternalError{Message: "Error executing insert round bet db request", Err: err}
			}
		}
		return nil
	})
}

func (s *SQLite) GetRoundResults(ctx context.Context) ([]RoundResult, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, round_number, winner_id, winner_name, pool, total_bets_on_winner, settled_at
		FROM rounds ORDER BY round_number ASC`)
	if err != nil {
		return nil, &InternalError{Message: "Can't read rounds", Err: err}
	}
	var results []RoundResult
	index := make(map[string]int)
	for rows.Next() {
		var r RoundResult
		var settledAt int64
		if err := rows.Scan(&r.ID, &r.RoundNumber, &r.WinnerID, &r.WinnerName, &r.Pool, &r.TotalBetsOnWinner, &settledAt); err != nil {
			rows.Close()
			return nil, &InternalError{Message: "Can't read round from db", Err: err}
		}
		r.SettledAt = time.Unix(0, settledAt).UTC()
		r.Bets = []RoundBetResult{}
		index[r.ID] = len(results)
		results = append(results, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &InternalError{Message: "Can't read rounds", Err: err}
	}

	betRows, err := s.q.QueryContext(ctx,
		`SELECT round_id, bettor_id, bettor_name, target_id, target_name, amount, payout, balance_delta
		FROM round_bets ORDER BY round_id, position ASC`)
	if err != nil {
		return nil, &InternalError{Message: "Can't read round bets", Err: err}
	}
	defer betRows.Close()
	for betRows.Next() {
		var roundID string
		var b RoundBetResult
		if err := betRows.Scan(&roundID, &b.BettorID, &b.BettorName, &b.TargetID, &b.TargetName, &b.Amount, &b.Payout, &b.BalanceDelta); err != nil {
			return nil, &InternalError{Message: "Can't read round bet from db", Err: err}
		}
		i, ok := index[roundID]
		if !ok {
			s.logger.Warn("Round bet without round: ", roundID)
			continue
		}
		results[i].Bets = append(results[i].Bets, b)
	}
	if err := betRows.Err(); err != nil {
		return nil, &InternalError{Message: "Can't read round bets", Err: err}
	}
	return results, nil
}

func (s *SQLite) ClearRoundResults(ctx context.Context) error {
	return s.RunInTx(ctx, func(tx Repository) error {
		q := tx.(*SQLite).q
		if _, err := q.ExecContext(ctx, `DELETE FROM round_bets`); err != nil {
			return &InternalError{Message: "Error clearing round bets history", Err: err}
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM rounds`); err != nil {
			return &InternalError{Message: "Error clearing rounds", Err: err}
		}
		return nil
	})
}

func (s *SQLite) GetSettings(ctx context.Context) (Settings, error) {
	var st Settings
	var track, direction string
	err := s.q.QueryRowContext(ctx,
		`SELECT audio_volume, audio_track, spin_direction FROM settings WHERE id = ?`, settingsRowID).
		Scan(&st.AudioVolume, &track, &direction)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, &NotFoundError{Err: errors.New("Settings not found")}
	}
	if err != nil {
		return Settings{}, &InternalError{Message: "Can't read settings", Err: err}
	}
	st.AudioTrack = Track(track)
	st.SpinDirection = SpinDirection(direction)
	return st, nil
}

func (s *SQLite) PutSettings(ctx context.Context, st Settings) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO settings(id, audio_volume, audio_track, spin_direction) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET audio_volume=excluded.audio_volume,
			audio_track=excluded.audio_track, spin_direction=excluded.spin_direction`,
		settingsRowID, st.AudioVolume, string(st.AudioTrack), string(st.SpinDirection))
	if err != nil {
		return &InternalError{Message: "Error executing upsert settings db request", Err: err}
	}
	return nil
}
