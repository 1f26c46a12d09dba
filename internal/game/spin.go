package game

import (
	"context"
	"math/rand"

	"github.com/dehimb/wheel/internal/store"
	"github.com/dehimb/wheel/internal/wheel"
)

type SpinOutcome struct {
	Winner store.Participant `json:"winner"`
	// Result is nil when the spin did not settle a round.
	Result *store.RoundResult `json:"result,omitempty"`
	// State is the game state right after the spin.
	State store.GameState `json:"state"`
}

// StartSpin plans a spin from the current rotation in the configured
// direction. Only one spin can be in flight; it returns false while one is,
// when the roster is empty or when the game is complete.
func (e *Engine) StartSpin(current float64, rnd *rand.Rand) (wheel.Plan, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spinning || len(e.participants) == 0 || !e.state.AcceptsPlay() {
		return wheel.Plan{}, false
	}
	e.spinning = true
	return wheel.NewPlan(current, e.settings.SpinDirection, rnd), true
}

// CancelSpin abandons the spin in flight without settling anything.
func (e *Engine) CancelSpin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spinning = false
}

func (e *Engine) Spinning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spinning
}

// FinishSpin resolves the winner under the pointer at finalRotation and
// settles the open round against it, once. It returns false when the
// roster is empty.
func (e *Engine) FinishSpin(ctx context.Context, finalRotation float64) (SpinOutcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spinning = false

	winner := wheel.SelectWinner(finalRotation, e.participants)
	if winner == nil {
		return SpinOutcome{}, false
	}
	out := SpinOutcome{Winner: *winner}
	if result, ok := e.settleLocked(ctx, winner.ID); ok {
		out.Result = result
	}
	out.State = e.state
	return out, true
}
