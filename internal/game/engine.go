// Package game owns the state of one wheel game: the participant roster,
// the wager ledger of the open round, round history and the round counter.
// Engine is the only way to change that state. It keeps everything in
// memory and writes through to a store.Repository; storage failures are
// logged and never roll back the in-memory state.
package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dehimb/wheel/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Engine struct {
	mu sync.Mutex

	logger      *logrus.Logger
	repo        store.Repository
	metrics     *Metrics
	now         func() time.Time
	newID       func() string
	totalRounds int

	participants []store.Participant
	state        store.GameState
	// bets of the current round keyed by bettor id
	bets     map[string]store.RoundBet
	rounds   []store.RoundResult
	settings store.Settings
	spinning bool
}

type Option func(*Engine)

// WithTotalRounds sets the round count of a fresh game.
func WithTotalRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.totalRounds = n
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(logger *logrus.Logger, repo store.Repository, opts ...Option) *Engine {
	e := &Engine{
		logger:      logger,
		repo:        repo,
		now:         time.Now,
		newID:       uuid.NewString,
		totalRounds: store.DefaultTotalRounds,
		bets:        make(map[string]store.RoundBet),
		settings:    store.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	e.state = store.DefaultGameState(e.totalRounds)
	return e
}

// Load replaces the in-memory state with what the repository holds and
// seeds defaults for anything missing.
func (e *Engine) Load(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	participants, err := e.repo.GetParticipants(ctx)
	if err != nil {
		e.logger.WithError(err).Error("Can't load participants, starting with defaults")
	}
	if len(participants) == 0 {
		participants = DefaultRoster(e.now())
		e.persist(ctx, "seed_participants", func(ctx context.Context, tx store.Repository) error {
			for _, p := range participants {
				if err := tx.PutParticipant(ctx, p); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for i := range participants {
		if participants[i].Balance < 0 {
			participants[i].Balance = 0
		}
	}
	e.participants = participants
	e.sortParticipants()

	state, err := e.repo.GetGameState(ctx)
	var notFound *store.NotFoundError
	switch {
	case errors.As(err, &notFound):
		state = store.DefaultGameState(e.totalRounds)
		e.persist(ctx, "seed_game", func(ctx context.Context, tx store.Repository) error {
			return tx.PutGameState(ctx, state)
		})
	case err != nil:
		e.logger.WithError(err).Error("Can't load game state, starting a new game")
		state = store.DefaultGameState(e.totalRounds)
	}
	if state.CurrentRound < 1 || state.TotalRounds < 1 {
		e.logger.WithField("state", state).Warn("Malformed game state, starting a new game")
		state = store.DefaultGameState(e.totalRounds)
	}
	e.state = state

	e.bets = make(map[string]store.RoundBet)
	bets, err := e.repo.GetBets(ctx, state.CurrentRound)
	if err != nil {
		e.logger.WithError(err).Error("Can't load bets")
	}
	for _, b := range bets {
		e.bets[b.BettorID] = b
	}

	rounds, err := e.repo.GetRoundResults(ctx)
	if err != nil {
		e.logger.WithError(err).Error("Can't load round history")
	}
	e.rounds = rounds

	settings, err := e.repo.GetSettings(ctx)
	switch {
	case errors.As(err, &notFound):
		settings = store.DefaultSettings()
		e.persist(ctx, "seed_settings", func(ctx context.Context, tx store.Repository) error {
			return tx.PutSettings(ctx, settings)
		})
	case err != nil:
		e.logger.WithError(err).Error("Can't load settings")
		settings = store.DefaultSettings()
	}
	e.settings = settings.Sanitize()

	e.logger.WithFields(logrus.Fields{
		"participants": len(e.participants),
		"round":        e.state.CurrentRound,
		"complete":     e.state.IsComplete,
		"history":      len(e.rounds),
	}).Info("Game loaded")
}

// persist runs fn in one repository transaction. A failure is logged and
// counted; the in-memory state stays authoritative. The write is detached
// from ctx cancellation: once memory has changed, storage must follow.
func (e *Engine) persist(ctx context.Context, op string, fn func(ctx context.Context, tx store.Repository) error) {
	ctx = context.WithoutCancel(ctx)
	err := e.repo.RunInTx(ctx, func(tx store.Repository) error {
		return fn(ctx, tx)
	})
	if err != nil {
		e.metrics.persistFailures.WithLabelValues(op).Inc()
		e.logger.WithError(err).WithField("op", op).Error("Can't persist game state")
	}
}

func (e *Engine) sortParticipants() {
	sort.SliceStable(e.participants, func(i, j int) bool {
		return e.participants[i].Order < e.participants[j].Order
	})
}

func (e *Engine) indexOf(id string) int {
	for i, p := range e.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Participants returns the roster in display order.
func (e *Engine) Participants() []store.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]store.Participant(nil), e.participants...)
}

func (e *Engine) GameState() store.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Rounds returns the settled rounds ordered by round number.
func (e *Engine) Rounds() []store.RoundResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]store.RoundResult(nil), e.rounds...)
}

func (e *Engine) Settings() store.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings stores s after replacing malformed fields with defaults.
func (e *Engine) UpdateSettings(ctx context.Context, s store.Settings) store.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s.Sanitize()
	settings := e.settings
	e.persist(ctx, "settings", func(ctx context.Context, tx store.Repository) error {
		return tx.PutSettings(ctx, settings)
	})
	return settings
}

// WeekWinner is the participant with the highest balance once the game is
// complete, the first in display order on a tie. It is nil while the game
// is running.
func (e *Engine) WeekWinner() *store.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.weekWinnerLocked()
}

func (e *Engine) weekWinnerLocked() *store.Participant {
	if !e.state.IsComplete || len(e.participants) == 0 {
		return nil
	}
	best := e.participants[0]
	for _, p := range e.participants[1:] {
		if p.Balance > best.Balance {
			best = p
		}
	}
	return &best
}

// Snapshot is a consistent view of the open round.
type Snapshot struct {
	State      store.GameState
	Bets       []store.RoundBet
	Pool       int64
	Spinning   bool
	WeekWinner *store.Participant
}

// Snapshot reads the game state and the open round's ledger under one lock,
// so the bets always belong to State.CurrentRound.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:      e.state,
		Bets:       e.betsLocked(),
		Pool:       e.poolLocked(),
		Spinning:   e.spinning,
		WeekWinner: e.weekWinnerLocked(),
	}
}
