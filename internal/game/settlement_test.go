package game

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/dehimb/wheel/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayout(t *testing.T) {
	testCases := []struct {
		name          string
		pool          int64
		amount        int64
		totalOnWinner int64
		want          int64
	}{
		{name: "sole backer takes the pool", pool: 1500, amount: 1000, totalOnWinner: 1000, want: 1500},
		{name: "proportional share", pool: 700, amount: 200, totalOnWinner: 300, want: 467},
		{name: "rounds down", pool: 700, amount: 100, totalOnWinner: 300, want: 233},
		{name: "half rounds up", pool: 502, amount: 100, totalOnWinner: 400, want: 126},
		{name: "nobody on winner", pool: 700, amount: 100, totalOnWinner: 0, want: 0},
		{name: "zero stake", pool: 700, amount: 0, totalOnWinner: 300, want: 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, Payout(testCase.pool, testCase.amount, testCase.totalOnWinner))
		})
	}
}

func TestSettleRoundAllBackersOnWinner(t *testing.T) {
	ctx := context.Background()
	e, repo := newTestEngine(t, "A", "B", "C", "D")
	_, ok := e.SetBet(ctx, "a", "b", 1000)
	require.True(t, ok)
	_, ok = e.SetBet(ctx, "c", "b", 500)
	require.True(t, ok)
	_, ok = e.SetBet(ctx, "b", "a", 0)
	require.True(t, ok)

	result, ok := e.SettleRound(ctx, store.Participant{ID: "b", Name: "B"})
	require.True(t, ok)

	assert.Equal(t, "round-1", result.ID)
	assert.Equal(t, 1, result.RoundNumber)
	assert.Equal(t, "b", result.WinnerID)
	assert.Equal(t, int64(1500), result.Pool)
	assert.Equal(t, int64(1500), result.TotalBetsOnWinner)
	assert.Equal(t, testTime, result.SettledAt)
	want := []store.RoundBetResult{
		{BettorID: "a", BettorName: "A", TargetID: "b", TargetName: "B", Amount: 1000, Payout: 1000, BalanceDelta: 0},
		{BettorID: "b", BettorName: "B", TargetID: "a", TargetName: "A", Amount: 0, Payout: 0, BalanceDelta: 0},
		{BettorID: "c", BettorName: "C", TargetID: "b", TargetName: "B", Amount: 500, Payout: 500, BalanceDelta: 0},
		{BettorID: "d", BettorName: "D", TargetID: "d", TargetName: "D", Amount: 0, Payout: 0, BalanceDelta: 0},
	}
	if diff := cmp.Diff(want, result.Bets); diff != "" {
		t.Errorf("bet results mismatch (-want +got):\n%s", diff)
	}

	for _, p := range e.Participants() {
		assert.Equal(t, store.DefaultStartBalance, p.Balance, p.Name)
	}
	assert.Empty(t, e.Bets())
	assert.Equal(t, store.GameState{CurrentRound: 2, TotalRounds: 5}, e.GameState())

	stored, err := repo.GetRoundResults(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, *result, stored[0])
	bets, err := repo.GetBets(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, bets)
	state, err := repo.GetGameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentRound)
}

func TestSettleRoundSingleBacker(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, "A", "B", "C", "D")
	_, ok := e.SetBet(ctx, "a", "b", 1000)
	require.True(t, ok)

	result, ok := e.SettleRound(ctx, store.Participant{ID: "b"})
	require.True(t, ok)

	assert.Equal(t, int64(1000), result.Pool)
	assert.Equal(t, int64(1000), result.TotalBetsOnWinner)
	assert.Equal(t, int64(1000), result.Bets[0].Payout)
	assert.Equal(t, int64(0), result.Bets[0].BalanceDelta)
	assert.Equal(t, "B", result.WinnerName, "winner name comes from the roster")
}

func TestSettleRoundRedistributesLosingStakes(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, "A", "B", "C", "D")
	e.SetBet(ctx, "a", "b", 100)
	e.SetBet(ctx, "c", "b", 200)
	e.SetBet(ctx, "d", "a", 400)

	result, ok := e.SettleRound(ctx, store.Participant{ID: "b"})
	require.True(t, ok)

	assert.Equal(t, int64(700), result.Pool)
	assert.Equal(t, int64(300), result.TotalBetsOnWinner)
	balances := make(map[string]int64)
	for _, p := range e.Participants() {
		balances[p.ID] = p.Balance
	}
	assert.Equal(t, map[string]int64{
		"a": 10000 + 133,
		"b": 10000,
		"c": 10000 + 267,
		"d": 10000 - 400,
	}, balances)
}

func TestSettleRoundForfeitsWhenNobodyBackedWinner(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, "A", "B", "C", "D")
	e.SetBet(ctx, "a", "b", 1000)
	e.SetBet(ctx, "c", "b", 500)
	e.SetBet(ctx, "d", "a", 300)

	result, ok := e.SettleRound(ctx, store.Participant{ID: "c"})
	require.True(t, ok)

	assert.Equal(t, int64(1800), result.Pool)
	assert.Equal(t, int64(0), result.TotalBetsOnWinner)
	for _, b := range result.Bets {
		assert.Equal(t, int64(0), b.Payout, b.BettorID)
		assert.Equal(t, -b.Amount, b.BalanceDelta, b.BettorID)
	}
	assert.Equal(t, int64(9000), e.Participants()[0].Balance)
}

func TestSettleRoundFloorsBalanceAtZero(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, "A", "B")
	e.SetBet(ctx, "a", "b", 5000)
	// The balance drops after the bet was placed.
	e.UpdateBalance(ctx, "a", 1000)

	result, ok := e.SettleRound(ctx, store.Participant{ID: "a"})
	require.True(t, ok)
	assert.Equal(t, int64(-5000), result.Bets[0].BalanceDelta)
	assert.Equal(t, int64(0), e.Participants()[0].Balance)
}

func TestSettleRoundUnknownWinnerIsNoop(t *testing.T) {
	ctx := context.Background()
	e, repo := newTestEngine(t, "A", "B")
	e.SetBet(ctx, "a", "b", 500)

	result, ok := e.SettleRound(ctx, store.Participant{ID: "zed", Name: "Zed"})
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.Len(t, e.Bets(), 1)
	assert.Equal(t, 1, e.GameState().CurrentRound)
	rounds, err := repo.GetRoundResults(ctx)
	require.NoError(t, err)
	assert.Empty(t, rounds)
}

func TestSettleRoundWithoutParticipantsIsNoop(t *testing.T) {
	e := New(testLogger(), store.NewMemory(), engineOptions()...)
	_, ok := e.SettleRound(context.Background(), store.Participant{ID: "a"})
	assert.False(t, ok)
	assert.Equal(t, 1, e.GameState().CurrentRound)
}

func TestSettleRoundWhenCompleteIsNoop(t *testing.T) {
	ctx := context.Background()
	e, repo := newTestEngine(t, "A", "B")
	for i := 0; i < store.DefaultTotalRounds; i++ {
		e.SetBet(ctx, "a", "b", 1000)
		_, ok := e.SettleRound(ctx, store.Participant{ID: "a"})
		require.True(t, ok)
	}
	require.True(t, e.GameState().IsComplete)

	participants := e.Participants()
	rounds := e.Rounds()
	state := e.GameState()

	result, ok := e.SettleRound(ctx, store.Participant{ID: "b"})
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.Equal(t, participants, e.Participants())
	assert.Equal(t, rounds, e.Rounds())
	assert.Equal(t, state, e.GameState())
	assert.Empty(t, e.Bets())

	stored, err := repo.GetRoundResults(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, store.DefaultTotalRounds)
}

func TestComputeSettlementConservesPool(t *testing.T) {
	faker := gofakeit.New(42)
	for run := 0; run < 200; run++ {
		n := faker.IntRange(1, 12)
		participants := make([]store.Participant, n)
		for i := range participants {
			participants[i] = store.Participant{
				ID:      fmt.Sprintf("p%d", i),
				Name:    faker.FirstName(),
				Balance: int64(faker.IntRange(0, 20000)),
				Order:   i,
			}
		}
		var bets []store.RoundBet
		for _, p := range participants {
			if faker.Bool() {
				continue
			}
			target := participants[faker.IntRange(0, n-1)]
			bets = append(bets, store.RoundBet{
				ID:          store.BetID(1, p.ID),
				RoundNumber: 1,
				BettorID:    p.ID,
				TargetID:    target.ID,
				Amount:      NormalizeBet(float64(faker.IntRange(-100, 25000)), p.Balance),
			})
		}
		winner := participants[faker.IntRange(0, n-1)]

		s := ComputeSettlement(1, winner, participants, bets)

		require.Len(t, s.Result.Bets, n)
		var stakes, payouts, backers int64
		for _, b := range s.Result.Bets {
			stakes += b.Amount
			payouts += b.Payout
			assert.Equal(t, b.Payout-b.Amount, b.BalanceDelta)
			if b.TargetID == winner.ID && b.Amount > 0 {
				backers++
			}
		}
		assert.Equal(t, stakes, s.Result.Pool)
		if s.Result.TotalBetsOnWinner > 0 {
			diff := payouts - s.Result.Pool
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, backers, "run %d", run)
		} else {
			assert.Equal(t, int64(0), payouts, "run %d", run)
		}
		for _, p := range participants {
			assert.GreaterOrEqual(t, s.Balances[p.ID], int64(0))
		}
	}
}
