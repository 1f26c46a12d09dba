package wheel

import (
	"math/rand"
	"time"

	"github.com/dehimb/wheel/internal/store"
)

const (
	MinRotations = 5
	MaxRotations = 10
	SpinDuration = 6 * time.Second
)

// Plan describes one spin animation for the UI.
type Plan struct {
	From      float64       `json:"from"`
	To        float64       `json:"to"`
	Rotations float64       `json:"rotations"`
	Direction string        `json:"direction"`
	Duration  time.Duration `json:"duration"`
}

// NewPlan draws a random number of full turns in [MinRotations, MaxRotations)
// and applies it from the current rotation. A clockwise spin accumulates a
// negative rotation, which is the sign SelectWinner expects.
func NewPlan(current float64, direction store.SpinDirection, rnd *rand.Rand) Plan {
	turns := rnd.Float64()*(MaxRotations-MinRotations) + MinRotations
	total := turns * fullTurn
	if direction != store.CounterClockwise {
		total = -total
		direction = store.Clockwise
	}
	return Plan{
		From:      current,
		To:        current + total,
		Rotations: turns,
		Direction: string(direction),
		Duration:  SpinDuration,
	}
}

// Ease is the cubic ease-out used by the animation, t in [0, 1].
func Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	u := 1 - t
	return 1 - u*u*u
}

// At returns the rotation of the plan after elapsed time.
func (p Plan) At(elapsed time.Duration) float64 {
	if p.Duration <= 0 {
		return p.To
	}
	t := float64(elapsed) / float64(p.Duration)
	return p.From + (p.To-p.From)*Ease(t)
}
