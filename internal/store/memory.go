package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Memory is a Repository kept entirely in process memory. It backs tests
// and the ":memory:" mode of the api server when sqlite is not wanted.
type Memory struct {
	mu   sync.Mutex
	txMu sync.Mutex

	participants map[string]Participant
	game         *GameState
	bets         map[string]RoundBet
	rounds       []RoundResult
	settings     *Settings
}

func NewMemory() *Memory {
	return &Memory{
		participants: make(map[string]Participant),
		bets:         make(map[string]RoundBet),
	}
}

func (m *Memory) Close() error {
	return nil
}

type memorySnapshot struct {
	participants map[string]Participant
	game         *GameState
	bets         map[string]RoundBet
	rounds       []RoundResult
	settings     *Settings
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memorySnapshot{
		participants: make(map[string]Participant, len(m.participants)),
		bets:         make(map[string]RoundBet, len(m.bets)),
		rounds:       append([]RoundResult(nil), m.rounds...),
	}
	for k, v := range m.participants {
		snap.participants[k] = v
	}
	for k, v := range m.bets {
		snap.bets[k] = v
	}
	if m.game != nil {
		g := *m.game
		snap.game = &g
	}
	if m.settings != nil {
		st := *m.settings
		snap.settings = &st
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants = snap.participants
	m.game = snap.game
	m.bets = snap.bets
	m.rounds = snap.rounds
	m.settings = snap.settings
}

// RunInTx serializes transactions and restores the previous contents when
// fn fails.
func (m *Memory) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	snap := m.snapshot()
	if err := fn(memoryTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// memoryTx joins the running transaction instead of taking txMu again.
type memoryTx struct {
	*Memory
}

func (t memoryTx) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	return fn(t)
}

func (m *Memory) GetParticipants(ctx context.Context) ([]Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	participants := make([]Participant, 0, len(m.participants))
	for _, p := range m.participants {
		participants = append(participants, p)
	}
	sort.SliceStable(participants, func(i, j int) bool {
		if participants[i].Order != participants[j].Order {
			return participants[i].Order < participants[j].Order
		}
		return participants[i].AddedAt.Before(participants[j].AddedAt)
	})
	return participants, nil
}

func (m *Memory) PutParticipant(ctx context.Context, p Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[p.ID] = p
	return nil
}

func (m *Memory) DeleteParticipant(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.participants, id)
	for k, b := range m.bets {
		if b.BettorID == id || b.TargetID == id {
			delete(m.bets, k)
		}
	}
	return nil
}

func (m *Memory) GetGameState(ctx context.Context) (GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.game == nil {
		return GameState{}, &NotFoundError{Err: errors.New("Game state not found")}
	}
	return *m.game, nil
}

func (m *Memory) PutGameState(ctx context.Context, s GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.game = &s
	return nil
}

func (m *Memory) GetBets(ctx context.Context, roundNumber int) ([]RoundBet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var bets []RoundBet
	for _, b := range m.bets {
		if b.RoundNumber == roundNumber {
			bets = append(bets, b)
		}
	}
	sort.Slice(bets, func(i, j int) bool { return bets[i].ID < bets[j].ID })
	return bets, nil
}

func (m *Memory) PutBet(ctx context.Context, b RoundBet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bets[b.ID] = b
	return nil
}

func (m *Memory) ClearBets(ctx context.Context, roundNumber int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.bets {
		if b.RoundNumber == roundNumber {
			delete(m.bets, k)
		}
	}
	return nil
}

func (m *Memory) ClearAllBets(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bets = make(map[string]RoundBet)
	return nil
}

func (m *Memory) AppendRoundResult(ctx context.Context, r RoundResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Bets = append([]RoundBetResult(nil), r.Bets...)
	m.rounds = append(m.rounds, r)
	return nil
}

func (m *Memory) GetRoundResults(ctx context.Context) ([]RoundResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := append([]RoundResult(nil), m.rounds...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].RoundNumber < results[j].RoundNumber })
	return results, nil
}

func (m *Memory) ClearRoundResults(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds = nil
	return nil
}

func (m *Memory) GetSettings(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return Settings{}, &NotFoundError{Err: errors.New("Settings not found")}
	}
	return *m.settings, nil
}

func (m *Memory) PutSettings(ctx context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}
