package wheel

import (
	"fmt"
	"math"
	"testing"

	"github.com/dehimb/wheel/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func participants(n int) []store.Participant {
	out := make([]store.Participant, n)
	for i := range out {
		out[i] = store.Participant{ID: fmt.Sprintf("participant-%d", i), Name: fmt.Sprintf("Participant %d", i+1), Order: i}
	}
	return out
}

func TestNormalizeAngle(t *testing.T) {
	testCases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{-270, 90},
		{810, 90},
		{-90, 270},
		{36000, 0},
		{-0.5, 359.5},
		{math.NaN(), 0},
		{math.Inf(-1), 0},
	}
	for _, testCase := range testCases {
		t.Run(fmt.Sprint(testCase.in), func(t *testing.T) {
			assert.InDelta(t, testCase.want, NormalizeAngle(testCase.in), 1e-9)
		})
	}
}

func TestNormalizeAngleTinyNegative(t *testing.T) {
	a := NormalizeAngle(-1e-15)
	assert.GreaterOrEqual(t, a, 0.0)
	assert.Less(t, a, 360.0)
}

func TestSelectWinner(t *testing.T) {
	four := participants(4)
	testCases := []struct {
		name  string
		angle float64
		want  int
	}{
		{name: "zero", angle: 0, want: 0},
		{name: "inside first sector", angle: 45, want: 0},
		{name: "second sector boundary", angle: 90, want: 1},
		{name: "third sector", angle: 180, want: 2},
		{name: "fourth sector", angle: 270, want: 3},
		{name: "full turn", angle: 360, want: 0},
		{name: "negative quarter", angle: -90, want: 3},
		{name: "negative half", angle: -180, want: 2},
		{name: "negative three quarters", angle: -270, want: 1},
		{name: "negative full turn", angle: -360, want: 0},
		{name: "one and a quarter turns", angle: 450, want: 1},
		{name: "two turns", angle: 720, want: 0},
		{name: "two and a quarter turns", angle: 810, want: 1},
		{name: "hundred turns", angle: 36000, want: 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			winner := SelectWinner(testCase.angle, four)
			require.NotNil(t, winner)
			assert.Equal(t, four[testCase.want].ID, winner.ID)
		})
	}
}

func TestSelectWinnerEmpty(t *testing.T) {
	for _, angle := range []float64{0, 180, -45, 36000} {
		assert.Nil(t, SelectWinner(angle, nil))
		assert.Nil(t, SelectWinner(angle, []store.Participant{}))
	}
}

func TestSelectWinnerSingleParticipant(t *testing.T) {
	one := participants(1)
	for _, angle := range []float64{0, 180, 359.999, -720.5, 36000, 1e9} {
		winner := SelectWinner(angle, one)
		require.NotNil(t, winner)
		assert.Equal(t, one[0].ID, winner.ID)
	}
}

func TestSelectWinnerMatchesSectorFormula(t *testing.T) {
	for n := 1; n <= 12; n++ {
		list := participants(n)
		for angle := -1080.0; angle <= 1080; angle += 7.25 {
			normalized := math.Mod(math.Mod(angle, 360)+360, 360)
			want := int(math.Floor(normalized/(360/float64(n)))) % n

			winner := SelectWinner(angle, list)
			require.NotNil(t, winner)
			assert.Equal(t, list[want].ID, winner.ID, "n=%d angle=%v", n, angle)
		}
	}
}

func TestSelectWinnerDistribution(t *testing.T) {
	for _, n := range []int{4, 6, 8} {
		list := participants(n)
		wins := make(map[string]int)
		const steps = 3600
		for i := 0; i < steps; i++ {
			angle := float64(i) * 3600 / steps
			wins[SelectWinner(angle, list).ID]++
		}
		for _, p := range list {
			assert.InDelta(t, steps/n, wins[p.ID], 1, "n=%d %s", n, p.Name)
		}
	}
}

func TestSelectWinnerDoesNotAliasInput(t *testing.T) {
	list := participants(2)
	winner := SelectWinner(10, list)
	winner.Name = "changed"
	assert.Equal(t, "Participant 1", list[0].Name)
}
