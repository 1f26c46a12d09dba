// Package wheel maps the wheel's rotation to its sectors.
//
// The pointer is fixed at angle 0 and the sectors rotate underneath it.
// Sector i covers [i*360/n, (i+1)*360/n) of the normalized rotation, with
// participants addressed by their display order.
package wheel

import (
	"math"

	"github.com/dehimb/wheel/internal/store"
)

const fullTurn = 360.0

// NormalizeAngle folds any rotation into [0, 360). Non-finite input is 0.
func NormalizeAngle(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0
	}
	a := math.Mod(math.Mod(degrees, fullTurn)+fullTurn, fullTurn)
	// Mod of a tiny negative value plus 360 can round up to exactly 360.
	if a >= fullTurn {
		a = 0
	}
	return a
}

// SectorIndex returns the sector under the pointer for n sectors, or -1
// when n is not positive.
func SectorIndex(finalRotationDegrees float64, n int) int {
	if n <= 0 {
		return -1
	}
	slice := fullTurn / float64(n)
	return int(math.Floor(NormalizeAngle(finalRotationDegrees)/slice)) % n
}

// SelectWinner returns the participant whose sector ends under the pointer.
// participants must be in display order. It returns nil for an empty list.
func SelectWinner(finalRotationDegrees float64, participants []store.Participant) *store.Participant {
	i := SectorIndex(finalRotationDegrees, len(participants))
	if i < 0 {
		return nil
	}
	winner := participants[i]
	return &winner
}
