package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/dehimb/wheel/internal/game"
	"github.com/dehimb/wheel/internal/store"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type handler struct {
	router   *mux.Router
	engine   *game.Engine
	logger   *logrus.Logger
	rnd      *rand.Rand
	gatherer prometheus.Gatherer
}

func (h *handler) initRouter(m MiddlewareDispatcher) {
	// Provide all middlewares from one method
	h.router.Use(m.populate()...)

	h.router.HandleFunc("/participants", h.participantsGet).Methods("GET")
	h.router.HandleFunc("/participants", h.participantsPost).Methods("POST")
	h.router.HandleFunc("/participants/order", h.participantsOrder).Methods("POST")
	h.router.HandleFunc("/participants/shuffle", h.participantsShuffle).Methods("POST")
	h.router.HandleFunc("/participants/sort", h.participantsSort).Methods("POST")
	h.router.HandleFunc("/participants/reset", h.participantsReset).Methods("POST")
	h.router.HandleFunc("/participants/{id}", h.participantDelete).Methods("DELETE")
	h.router.HandleFunc("/participants/{id}/balance", h.participantBalance).Methods("PUT")

	h.router.HandleFunc("/bets", h.betsGet).Methods("GET")
	h.router.HandleFunc("/bets", h.betPut).Methods("PUT")

	h.router.HandleFunc("/spin/plan", h.spinPlan).Methods("GET")
	h.router.HandleFunc("/spin/cancel", h.spinCancel).Methods("POST")
	h.router.HandleFunc("/spin", h.spin).Methods("POST")

	h.router.HandleFunc("/game", h.gameGet).Methods("GET")
	h.router.HandleFunc("/game/reset", h.gameReset).Methods("POST")
	h.router.HandleFunc("/rounds", h.roundsGet).Methods("GET")

	h.router.HandleFunc("/settings", h.settingsGet).Methods("GET")
	h.router.HandleFunc("/settings", h.settingsPut).Methods("PUT")

	if h.gatherer != nil {
		h.router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	h.router.PathPrefix("/").HandlerFunc(h.defaultHandler)
}

func (h *handler) defaultHandler(w http.ResponseWriter, r *http.Request) {
	sendErrorResponse(w, "Not found", http.StatusNotFound)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debug("Can't decode request body: ", err)
		sendErrorResponse(w, "Malformed request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *handler) participantsGet(w http.ResponseWriter, r *http.Request) {
	participants := h.engine.Participants()
	if participants == nil {
		participants = []store.Participant{}
	}
	sendResponse(w, ParticipantsResponse{Participants: participants}, http.StatusOK)
}

type participantRequest struct {
	Name string `json:"name"`
}

func (h *handler) participantsPost(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.engine.AddParticipant(r.Context(), req.Name)
	var validationErr *store.ValidationError
	if errors.As(err, &validationErr) {
		sendResponse(w, ErrorResponse{Error: validationErr.Error(), Field: validationErr.Field}, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("Can't add participant: ", err)
		sendErrorResponse(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sendResponse(w, p, http.StatusCreated)
}

func (h *handler) participantDelete(w http.ResponseWriter, r *http.Request) {
	if !h.engine.RemoveParticipant(r.Context(), mux.Vars(r)["id"]) {
		sendErrorResponse(w, "Participant not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceRequest struct {
	Balance float64 `json:"balance"`
}

func (h *handler) participantBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, ok := h.engine.UpdateBalance(r.Context(), mux.Vars(r)["id"], req.Balance)
	if !ok {
		sendErrorResponse(w, "Participant not found", http.StatusNotFound)
		return
	}
	sendResponse(w, p, http.StatusOK)
}

type orderRequest struct {
	IDs []string `json:"ids"`
}

func (h *handler) participantsOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.engine.Reorder(r.Context(), req.IDs)
	h.participantsGet(w, r)
}

func (h *handler) participantsShuffle(w http.ResponseWriter, r *http.Request) {
	h.engine.Shuffle(r.Context(), h.rnd)
	h.participantsGet(w, r)
}

func (h *handler) participantsSort(w http.ResponseWriter, r *http.Request) {
	h.engine.SortByName(r.Context())
	h.participantsGet(w, r)
}

func (h *handler) participantsReset(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetParticipants(r.Context())
	h.participantsGet(w, r)
}

func (h *handler) betsGet(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	sendResponse(w, BetsResponse{
		Round: snap.State.CurrentRound,
		Pool:  snap.Pool,
		Bets:  snap.Bets,
	}, http.StatusOK)
}

type betRequest struct {
	BettorID string  `json:"bettorId"`
	TargetID string  `json:"targetId"`
	Amount   float64 `json:"amount"`
}

func (h *handler) betPut(w http.ResponseWriter, r *http.Request) {
	var req betRequest
	if !h.decode(w, r, &req) {
		return
	}
	bet, ok := h.engine.SetBet(r.Context(), req.BettorID, req.TargetID, req.Amount)
	if !ok {
		sendErrorResponse(w, "Bet not accepted", http.StatusConflict)
		return
	}
	sendResponse(w, bet, http.StatusOK)
}

func (h *handler) spinPlan(w http.ResponseWriter, r *http.Request) {
	var current float64
	if v := r.URL.Query().Get("current"); v != "" {
		var err error
		if current, err = strconv.ParseFloat(v, 64); err != nil {
			sendErrorResponse(w, "Invalid current rotation", http.StatusBadRequest)
			return
		}
	}
	plan, ok := h.engine.StartSpin(current, h.rnd)
	if !ok {
		sendErrorResponse(w, "Spin not available", http.StatusConflict)
		return
	}
	sendResponse(w, SpinPlanResponse{Plan: plan}, http.StatusOK)
}

func (h *handler) spinCancel(w http.ResponseWriter, r *http.Request) {
	h.engine.CancelSpin()
	w.WriteHeader(http.StatusNoContent)
}

type spinRequest struct {
	Rotation float64 `json:"rotation"`
}

func (h *handler) spin(w http.ResponseWriter, r *http.Request) {
	var req spinRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, ok := h.engine.FinishSpin(r.Context(), req.Rotation)
	if !ok {
		sendErrorResponse(w, "No participants", http.StatusConflict)
		return
	}
	sendResponse(w, SpinResponse{SpinOutcome: out}, http.StatusOK)
}

func (h *handler) gameGet(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	sendResponse(w, GameResponse{
		State:      snap.State,
		Pool:       snap.Pool,
		Spinning:   snap.Spinning,
		WeekWinner: snap.WeekWinner,
	}, http.StatusOK)
}

func (h *handler) gameReset(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetGame(r.Context())
	h.gameGet(w, r)
}

func (h *handler) roundsGet(w http.ResponseWriter, r *http.Request) {
	rounds := h.engine.Rounds()
	if rounds == nil {
		rounds = []store.RoundResult{}
	}
	sendResponse(w, RoundsResponse{Rounds: rounds}, http.StatusOK)
}

func (h *handler) settingsGet(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, SettingsResponse{Settings: h.engine.Settings()}, http.StatusOK)
}

func (h *handler) settingsPut(w http.ResponseWriter, r *http.Request) {
	// Fields missing from the body keep their current value.
	settings := h.engine.Settings()
	if !h.decode(w, r, &settings) {
		return
	}
	sendResponse(w, SettingsResponse{Settings: h.engine.UpdateSettings(r.Context(), settings)}, http.StatusOK)
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}
