package game

import (
	"context"
	"math"
	"sort"

	"github.com/dehimb/wheel/internal/store"
	"github.com/sirupsen/logrus"
)

// MinStake is the smallest non-zero bet.
const MinStake int64 = 100

// NormalizeBet maps a requested stake to the stake actually placed:
//   - non-finite or non-positive amounts place nothing (0);
//   - a bettor holding less than MinStake places nothing (0);
//   - amounts below MinStake are raised to MinStake;
//   - anything else is capped at the balance and truncated to whole units.
func NormalizeBet(raw float64, balance int64) int64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0
	}
	if balance < MinStake {
		return 0
	}
	if raw < float64(MinStake) {
		return MinStake
	}
	if raw >= float64(balance) {
		return balance
	}
	return int64(math.Floor(raw))
}

// SetBet places or replaces the bet of bettorID in the open round. Invalid
// amounts are normalized, never rejected. It returns false without
// changing anything when the game is complete or either participant is
// unknown.
func (e *Engine) SetBet(ctx context.Context, bettorID, targetID string, rawAmount float64) (store.RoundBet, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.AcceptsPlay() {
		return store.RoundBet{}, false
	}
	bi := e.indexOf(bettorID)
	if bi < 0 || e.indexOf(targetID) < 0 {
		e.logger.WithFields(logrus.Fields{"bettor": bettorID, "target": targetID}).Debug("Bet ignored, unknown participant")
		return store.RoundBet{}, false
	}

	round := e.state.CurrentRound
	bet := store.RoundBet{
		ID:          store.BetID(round, bettorID),
		RoundNumber: round,
		BettorID:    bettorID,
		TargetID:    targetID,
		Amount:      NormalizeBet(rawAmount, e.participants[bi].Balance),
	}
	e.bets[bettorID] = bet
	e.metrics.betsPlaced.Inc()

	e.persist(ctx, "bet", func(ctx context.Context, tx store.Repository) error {
		return tx.PutBet(ctx, bet)
	})
	return bet, true
}

// Bets returns the open round's bets in display order of their bettors.
func (e *Engine) Bets() []store.RoundBet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.betsLocked()
}

func (e *Engine) betsLocked() []store.RoundBet {
	bets := make([]store.RoundBet, 0, len(e.bets))
	for _, p := range e.participants {
		if b, ok := e.bets[p.ID]; ok {
			bets = append(bets, b)
		}
	}
	return bets
}

// Pool is the sum of all stakes in the open round.
func (e *Engine) Pool() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poolLocked()
}

func (e *Engine) poolLocked() int64 {
	var pool int64
	for _, b := range e.bets {
		pool += b.Amount
	}
	return pool
}

// EffectiveBets returns exactly one bet per participant, in roster order.
// A participant without a bet in roundBets gets a zero bet on themselves.
// Bets placed by someone outside the roster are dropped.
func EffectiveBets(roundNumber int, participants []store.Participant, roundBets []store.RoundBet) []store.RoundBet {
	byBettor := make(map[string]store.RoundBet, len(roundBets))
	for _, b := range roundBets {
		byBettor[b.BettorID] = b
	}
	bets := make([]store.RoundBet, 0, len(participants))
	for _, p := range participants {
		if b, ok := byBettor[p.ID]; ok {
			bets = append(bets, b)
			continue
		}
		bets = append(bets, store.RoundBet{
			ID:          store.BetID(roundNumber, p.ID),
			RoundNumber: roundNumber,
			BettorID:    p.ID,
			TargetID:    p.ID,
		})
	}
	return bets
}

func (e *Engine) currentBets() []store.RoundBet {
	bets := make([]store.RoundBet, 0, len(e.bets))
	for _, b := range e.bets {
		bets = append(bets, b)
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].ID < bets[j].ID })
	return bets
}
