package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dehimb/wheel/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	MaxParticipants = 32
	// MaxBalance is the largest balance a manual edit can set. Floats above
	// it lose whole units.
	MaxBalance    int64 = 1 << 53
	minNameLength       = 2
	maxNameLength       = 30
)

var defaultNames = []string{
	"Илья М",
	"Илья П",
	"Темочка",
	"Дмитрий",
	"Константин",
}

var namePattern = regexp.MustCompile(`^[а-яА-Яa-zA-Z0-9 -]+$`)

// DefaultRoster is the roster of a fresh install.
func DefaultRoster(now time.Time) []store.Participant {
	roster := make([]store.Participant, 0, len(defaultNames))
	for i, name := range defaultNames {
		roster = append(roster, store.Participant{
			ID:      strconv.Itoa(i + 1),
			Name:    name,
			AddedAt: now,
			Balance: store.DefaultStartBalance,
			Order:   i,
		})
	}
	return roster
}

// ValidateName checks a new participant name against the roster.
func ValidateName(name string, roster []store.Participant) error {
	name = strings.TrimSpace(name)
	switch n := len([]rune(name)); {
	case n == 0:
		return &store.ValidationError{Field: "name", Err: errors.New("Name must not be empty")}
	case n < minNameLength:
		return &store.ValidationError{Field: "name", Err: fmt.Errorf("Name must be at least %d characters", minNameLength)}
	case n > maxNameLength:
		return &store.ValidationError{Field: "name", Err: fmt.Errorf("Name must be at most %d characters", maxNameLength)}
	}
	if !namePattern.MatchString(name) {
		return &store.ValidationError{Field: "name", Err: errors.New("Name must not contain special characters")}
	}
	for _, p := range roster {
		if strings.EqualFold(p.Name, name) {
			return &store.ValidationError{Field: "name", Err: errors.New("Participant with this name already exists")}
		}
	}
	return nil
}

// AddParticipant appends a participant at the end of the wheel with the
// starting balance.
func (e *Engine) AddParticipant(ctx context.Context, name string) (store.Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.participants) >= MaxParticipants {
		return store.Participant{}, &store.ValidationError{
			Field: "limit",
			Err:   fmt.Errorf("Maximum number of participants is %d", MaxParticipants),
		}
	}
	if err := ValidateName(name, e.participants); err != nil {
		return store.Participant{}, err
	}

	order := 0
	if len(e.participants) > 0 {
		order = e.participants[0].Order
		for _, p := range e.participants[1:] {
			if p.Order > order {
				order = p.Order
			}
		}
		order++
	}
	p := store.Participant{
		ID:      e.newID(),
		Name:    strings.TrimSpace(name),
		AddedAt: e.now().UTC(),
		Balance: store.DefaultStartBalance,
		Order:   order,
	}
	e.participants = append(e.participants, p)

	e.persist(ctx, "add_participant", func(ctx context.Context, tx store.Repository) error {
		return tx.PutParticipant(ctx, p)
	})
	e.logger.WithFields(logrus.Fields{"id": p.ID, "name": p.Name}).Info("Participant added")
	return p, nil
}

// RemoveParticipant drops the participant and every open bet placed by or
// on them. Unknown ids are ignored.
func (e *Engine) RemoveParticipant(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return false
	}
	e.participants = append(e.participants[:i], e.participants[i+1:]...)
	for bettor, b := range e.bets {
		if b.BettorID == id || b.TargetID == id {
			delete(e.bets, bettor)
		}
	}

	e.persist(ctx, "remove_participant", func(ctx context.Context, tx store.Repository) error {
		return tx.DeleteParticipant(ctx, id)
	})
	e.logger.WithField("id", id).Info("Participant removed")
	return true
}

// Reorder puts the listed participants first, in the given order, followed
// by everyone else in their previous relative order. Orders are rewritten
// densely from zero. Unknown and repeated ids are ignored.
func (e *Engine) Reorder(ctx context.Context, ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]bool, len(ids))
	next := make([]store.Participant, 0, len(e.participants))
	for _, id := range ids {
		i := e.indexOf(id)
		if i < 0 || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, e.participants[i])
	}
	for _, p := range e.participants {
		if !seen[p.ID] {
			next = append(next, p)
		}
	}
	e.applyOrder(ctx, "reorder", next)
}

// Shuffle puts the roster in a random order.
func (e *Engine) Shuffle(ctx context.Context, rnd *rand.Rand) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := append([]store.Participant(nil), e.participants...)
	rnd.Shuffle(len(next), func(i, j int) { next[i], next[j] = next[j], next[i] })
	e.applyOrder(ctx, "shuffle", next)
}

// SortByName orders the roster alphabetically, ignoring case.
func (e *Engine) SortByName(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := append([]store.Participant(nil), e.participants...)
	sort.SliceStable(next, func(i, j int) bool {
		return strings.ToLower(next[i].Name) < strings.ToLower(next[j].Name)
	})
	e.applyOrder(ctx, "sort", next)
}

func (e *Engine) applyOrder(ctx context.Context, op string, next []store.Participant) {
	for i := range next {
		next[i].Order = i
	}
	e.participants = next

	participants := append([]store.Participant(nil), next...)
	e.persist(ctx, op, func(ctx context.Context, tx store.Repository) error {
		for _, p := range participants {
			if err := tx.PutParticipant(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetParticipants replaces the roster with the default one. Open bets
// are dropped with the old roster; the round counter and history stay.
func (e *Engine) ResetParticipants(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.participants
	e.participants = DefaultRoster(e.now().UTC())
	e.bets = make(map[string]store.RoundBet)

	participants := append([]store.Participant(nil), e.participants...)
	e.persist(ctx, "reset_participants", func(ctx context.Context, tx store.Repository) error {
		for _, p := range old {
			if err := tx.DeleteParticipant(ctx, p.ID); err != nil {
				return err
			}
		}
		if err := tx.ClearAllBets(ctx); err != nil {
			return err
		}
		for _, p := range participants {
			if err := tx.PutParticipant(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	e.logger.Info("Participants reset to defaults")
}

// UpdateBalance sets a balance by hand, rounded to whole units, floored at
// zero and capped at MaxBalance. Unknown ids are ignored.
func (e *Engine) UpdateBalance(ctx context.Context, id string, value float64) (store.Participant, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return store.Participant{}, false
	}
	var balance int64
	switch {
	case value <= 0:
	case value >= float64(MaxBalance):
		balance = MaxBalance
	default:
		balance = int64(math.Round(value))
	}
	e.participants[i].Balance = balance

	p := e.participants[i]
	e.persist(ctx, "balance", func(ctx context.Context, tx store.Repository) error {
		return tx.PutParticipant(ctx, p)
	})
	return p, true
}
