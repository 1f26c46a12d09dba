package store

import (
	"fmt"
	"time"
)

const (
	DefaultStartBalance int64 = 10000
	DefaultTotalRounds        = 5
	// UnknownName is shown in round history for a bettor or target that is gone.
	UnknownName = "unknown"
)

type Participant struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"addedAt"`
	Balance int64     `json:"balance"`
	Order   int       `json:"order"`
}

// RoundBet is the single active bet of a bettor in a round.
type RoundBet struct {
	ID          string `json:"id"`
	RoundNumber int    `json:"roundNumber"`
	BettorID    string `json:"bettorId"`
	TargetID    string `json:"targetId"`
	Amount      int64  `json:"amount"`
}

// BetID derives the bet key, so a bettor holds at most one bet per round.
func BetID(roundNumber int, bettorID string) string {
	return fmt.Sprintf("%d:%s", roundNumber, bettorID)
}

type GameState struct {
	CurrentRound int  `json:"currentRound"`
	TotalRounds  int  `json:"totalRounds"`
	IsComplete   bool `json:"isComplete"`
}

func DefaultGameState(totalRounds int) GameState {
	if totalRounds < 1 {
		totalRounds = DefaultTotalRounds
	}
	return GameState{CurrentRound: 1, TotalRounds: totalRounds}
}

// AcceptsPlay reports whether bets and spins still affect the game.
func (g GameState) AcceptsPlay() bool {
	return !g.IsComplete
}

// Advance moves the state past a settled round. The last round marks the
// game complete and keeps the round counter where it is.
func (g GameState) Advance() GameState {
	if g.CurrentRound >= g.TotalRounds {
		g.IsComplete = true
		return g
	}
	g.CurrentRound++
	return g
}

type RoundBetResult struct {
	BettorID     string `json:"bettorId"`
	BettorName   string `json:"bettorName"`
	TargetID     string `json:"targetId"`
	TargetName   string `json:"targetName"`
	Amount       int64  `json:"amount"`
	Payout       int64  `json:"payout"`
	BalanceDelta int64  `json:"balanceDelta"`
}

type RoundResult struct {
	ID                string           `json:"id"`
	RoundNumber       int              `json:"roundNumber"`
	WinnerID          string           `json:"winnerId"`
	WinnerName        string           `json:"winnerName"`
	Pool              int64            `json:"pool"`
	TotalBetsOnWinner int64            `json:"totalBetsOnWinner"`
	SettledAt         time.Time        `json:"settledAt"`
	Bets              []RoundBetResult `json:"bets"`
}

func RoundResultID(roundNumber int) string {
	return fmt.Sprintf("round-%d", roundNumber)
}
