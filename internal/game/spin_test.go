package game

import (
	"context"
	"math/rand"
	"testing"

	"github.com/dehimb/wheel/internal/store"
	"github.com/dehimb/wheel/internal/wheel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinLifecycle(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, "A", "B", "C", "D")
	rnd := rand.New(rand.NewSource(1))

	plan, ok := e.StartSpin(0, rnd)
	require.True(t, ok)
	assert.Less(t, plan.To, plan.From, "clockwise spins accumulate negative rotation")
	assert.True(t, e.Spinning())

	_, ok = e.StartSpin(0, rnd)
	assert.False(t, ok, "only one spin in flight")

	e.SetBet(ctx, "a", "c", 1000)
	// 4 sectors of 90°: -170° normalizes to 190°, sector 2.
	out, ok := e.FinishSpin(ctx, -170)
	require.True(t, ok)
	assert.Equal(t, "c", out.Winner.ID)
	require.NotNil(t, out.Result)
	assert.Equal(t, int64(1000), out.Result.Bets[0].Payout)
	assert.False(t, e.Spinning())
	assert.Equal(t, 2, out.State.CurrentRound)
	assert.Equal(t, e.GameState(), out.State)
}

func TestSpinFollowsSettingsDirection(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, "A", "B")
	e.UpdateSettings(ctx, store.Settings{AudioVolume: 30, AudioTrack: store.TrackDefault, SpinDirection: store.CounterClockwise})

	plan, ok := e.StartSpin(90, rand.New(rand.NewSource(3)))
	require.True(t, ok)
	assert.Greater(t, plan.To, plan.From)
	assert.GreaterOrEqual(t, plan.To-plan.From, float64(wheel.MinRotations*360))
}

func TestCancelSpin(t *testing.T) {
	e, _ := newTestEngine(t, "A", "B")
	rnd := rand.New(rand.NewSource(1))
	_, ok := e.StartSpin(0, rnd)
	require.True(t, ok)

	e.CancelSpin()

	_, ok = e.StartSpin(0, rnd)
	assert.True(t, ok)
}

func TestSpinUnavailable(t *testing.T) {
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(1))

	empty := New(testLogger(), store.NewMemory(), engineOptions()...)
	_, ok := empty.StartSpin(0, rnd)
	assert.False(t, ok)
	_, ok = empty.FinishSpin(ctx, 45)
	assert.False(t, ok)

	e, _ := newTestEngine(t, "A", "B")
	for i := 0; i < store.DefaultTotalRounds; i++ {
		e.SettleRound(ctx, store.Participant{ID: "a"})
	}
	_, ok = e.StartSpin(0, rnd)
	assert.False(t, ok, "no spins once the game is complete")

	out, ok := e.FinishSpin(ctx, 0)
	require.True(t, ok)
	assert.Equal(t, "a", out.Winner.ID)
	assert.Nil(t, out.Result, "a finished game does not settle")
}
