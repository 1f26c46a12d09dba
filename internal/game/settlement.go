package game

import (
	"context"

	"github.com/dehimb/wheel/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Settlement is the outcome of resolving one round, before it is applied.
type Settlement struct {
	Result store.RoundResult
	// Balances holds the new balance of every bettor, by participant id.
	Balances map[string]int64
}

// Payout is the pari-mutuel share of pool for a winning stake, rounded half
// up to whole units.
func Payout(pool, amount, totalOnWinner int64) int64 {
	if totalOnWinner <= 0 || amount <= 0 {
		return 0
	}
	return decimal.NewFromInt(pool).
		Mul(decimal.NewFromInt(amount)).
		DivRound(decimal.NewFromInt(totalOnWinner), 0).
		IntPart()
}

// ComputeSettlement resolves bets against winner. Backers of the winner
// split the whole pool in proportion to their stakes. When nobody backed
// the winner every stake is forfeited and nothing is paid out. Rounded
// payouts may not add up to the pool exactly; the difference is dropped.
func ComputeSettlement(roundNumber int, winner store.Participant, participants []store.Participant, bets []store.RoundBet) Settlement {
	byID := make(map[string]store.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	nameOf := func(id string) string {
		if p, ok := byID[id]; ok {
			return p.Name
		}
		return store.UnknownName
	}

	effective := EffectiveBets(roundNumber, participants, bets)
	var pool, onWinner int64
	for _, b := range effective {
		pool += b.Amount
		if b.TargetID == winner.ID {
			onWinner += b.Amount
		}
	}

	results := make([]store.RoundBetResult, 0, len(effective))
	balances := make(map[string]int64, len(effective))
	for _, b := range effective {
		var payout int64
		if b.TargetID == winner.ID {
			payout = Payout(pool, b.Amount, onWinner)
		}
		delta := payout - b.Amount
		results = append(results, store.RoundBetResult{
			BettorID:     b.BettorID,
			BettorName:   nameOf(b.BettorID),
			TargetID:     b.TargetID,
			TargetName:   nameOf(b.TargetID),
			Amount:       b.Amount,
			Payout:       payout,
			BalanceDelta: delta,
		})
		if bettor, ok := byID[b.BettorID]; ok {
			next := bettor.Balance + delta
			if next < 0 {
				next = 0
			}
			balances[bettor.ID] = next
		}
	}

	return Settlement{
		Result: store.RoundResult{
			ID:                store.RoundResultID(roundNumber),
			RoundNumber:       roundNumber,
			WinnerID:          winner.ID,
			WinnerName:        winner.Name,
			Pool:              pool,
			TotalBetsOnWinner: onWinner,
			Bets:              results,
		},
		Balances: balances,
	}
}

// SettleRound resolves the open round against winner, applies the balance
// changes, records the result, clears the round's bets and advances the
// round counter, all as one step. It returns false and changes nothing
// when the game is complete or winner is not on the roster.
func (e *Engine) SettleRound(ctx context.Context, winner store.Participant) (*store.RoundResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settleLocked(ctx, winner.ID)
}

func (e *Engine) settleLocked(ctx context.Context, winnerID string) (*store.RoundResult, bool) {
	if !e.state.AcceptsPlay() || len(e.participants) == 0 {
		return nil, false
	}
	wi := e.indexOf(winnerID)
	if wi < 0 {
		e.logger.WithField("winner", winnerID).Warn("Settlement ignored, winner is not a participant")
		return nil, false
	}
	winner := e.participants[wi]
	round := e.state.CurrentRound

	s := ComputeSettlement(round, winner, e.participants, e.currentBets())
	s.Result.SettledAt = e.now().UTC()

	for i := range e.participants {
		if next, ok := s.Balances[e.participants[i].ID]; ok {
			e.participants[i].Balance = next
		}
	}
	e.rounds = append(e.rounds, s.Result)
	e.bets = make(map[string]store.RoundBet)
	e.state = e.state.Advance()

	e.metrics.roundsSettled.Inc()
	e.metrics.roundPool.Observe(float64(s.Result.Pool))
	if s.Result.TotalBetsOnWinner == 0 {
		e.metrics.poolForfeited.Add(float64(s.Result.Pool))
	}

	participants := append([]store.Participant(nil), e.participants...)
	state := e.state
	result := s.Result
	e.persist(ctx, "settle", func(ctx context.Context, tx store.Repository) error {
		for _, p := range participants {
			if err := tx.PutParticipant(ctx, p); err != nil {
				return err
			}
		}
		if err := tx.AppendRoundResult(ctx, result); err != nil {
			return err
		}
		if err := tx.ClearBets(ctx, round); err != nil {
			return err
		}
		return tx.PutGameState(ctx, state)
	})

	e.logger.WithFields(logrus.Fields{
		"round":        round,
		"winner":       winner.Name,
		"pool":         result.Pool,
		"betsOnWinner": result.TotalBetsOnWinner,
		"gameComplete": state.IsComplete,
	}).Info("Round settled")

	out := result
	out.Bets = append([]store.RoundBetResult(nil), result.Bets...)
	return &out, true
}
