package game

import (
	"context"

	"github.com/dehimb/wheel/internal/store"
)

// ResetGame starts a new game on the same roster: bets and round history
// are cleared, every balance goes back to the starting balance and the
// counter returns to round one.
func (e *Engine) ResetGame(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bets = make(map[string]store.RoundBet)
	e.rounds = nil
	e.state = store.DefaultGameState(e.totalRounds)
	for i := range e.participants {
		e.participants[i].Balance = store.DefaultStartBalance
	}
	e.metrics.gamesReset.Inc()

	participants := append([]store.Participant(nil), e.participants...)
	state := e.state
	e.persist(ctx, "reset", func(ctx context.Context, tx store.Repository) error {
		if err := tx.ClearAllBets(ctx); err != nil {
			return err
		}
		if err := tx.ClearRoundResults(ctx); err != nil {
			return err
		}
		if err := tx.PutGameState(ctx, state); err != nil {
			return err
		}
		for _, p := range participants {
			if err := tx.PutParticipant(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	e.logger.Info("Game reset")
}
