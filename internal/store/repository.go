// Package store holds the data model of the wheel game and the persistence
// behind it. The game engine keeps its state in memory and writes through
// a Repository; SQLite is the durable implementation.
package store

import "context"

type Repository interface {
	// GetParticipants returns participants sorted by Order.
	GetParticipants(ctx context.Context) ([]Participant, error)
	PutParticipant(ctx context.Context, p Participant) error
	// DeleteParticipant also deletes every bet placed by or on the participant.
	DeleteParticipant(ctx context.Context, id string) error

	// GetGameState returns a NotFoundError when no state was stored yet.
	GetGameState(ctx context.Context) (GameState, error)
	PutGameState(ctx context.Context, s GameState) error

	GetBets(ctx context.Context, roundNumber int) ([]RoundBet, error)
	PutBet(ctx context.Context, b RoundBet) error
	ClearBets(ctx context.Context, roundNumber int) error
	ClearAllBets(ctx context.Context) error

	AppendRoundResult(ctx context.Context, r RoundResult) error
	// GetRoundResults returns history sorted by round number.
	GetRoundResults(ctx context.Context) ([]RoundResult, error)
	ClearRoundResults(ctx context.Context) error

	// GetSettings returns a NotFoundError when no settings were stored yet.
	GetSettings(ctx context.Context) (Settings, error)
	PutSettings(ctx context.Context, s Settings) error

	// RunInTx applies every write made through tx as one unit. Nested calls
	// join the outer transaction.
	RunInTx(ctx context.Context, fn func(tx Repository) error) error

	Close() error
}
