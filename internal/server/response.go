package server

import (
	"encoding/json"
	"net/http"

	"github.com/dehimb/wheel/internal/game"
	"github.com/dehimb/wheel/internal/store"
	"github.com/dehimb/wheel/internal/wheel"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type ParticipantsResponse struct {
	Participants []store.Participant `json:"participants"`
}

type BetsResponse struct {
	Round int              `json:"round"`
	Pool  int64            `json:"pool"`
	Bets  []store.RoundBet `json:"bets"`
}

type GameResponse struct {
	State      store.GameState    `json:"state"`
	Pool       int64              `json:"pool"`
	Spinning   bool               `json:"spinning"`
	WeekWinner *store.Participant `json:"weekWinner,omitempty"`
}

type RoundsResponse struct {
	Rounds []store.RoundResult `json:"rounds"`
}

type SpinPlanResponse struct {
	Plan wheel.Plan `json:"plan"`
}

type SpinResponse struct {
	game.SpinOutcome
}

type SettingsResponse struct {
	Settings store.Settings `json:"settings"`
}

func sendResponse(w http.ResponseWriter, body interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func sendErrorResponse(w http.ResponseWriter, message string, code int) {
	sendResponse(w, ErrorResponse{Error: message}, code)
}
