package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"championship-ledger/internal/constants"
	"championship-ledger/internal/domain"
	"championship-ledger/internal/ledger"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Store is the persistence collaborator: the whole aggregate goes in and out
// as one document. Load returns (nil, nil) when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*domain.Ledger, error)
	Save(ctx context.Context, l *domain.Ledger) error
}

// LedgerService owns the single in-memory aggregate. Every mutating operation
// runs copy-on-write: the engine works on a clone, the clone is persisted, and
// only a successful save makes it current and notifies listeners. A failed
// save therefore leaves no externally visible effect.
type LedgerService struct {
	mu       sync.RWMutex
	ledger   *domain.Ledger
	engine   *ledger.Engine
	store    Store
	notifier *Notifier
	clock    clockwork.Clock
	logger   zerolog.Logger
}

func NewLedgerService(
	store Store,
	engine *ledger.Engine,
	notifier *Notifier,
	clock clockwork.Clock,
	logger zerolog.Logger,
) (*LedgerService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	current, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	s := &LedgerService{
		engine:   engine,
		store:    store,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}

	if current == nil {
		current = domain.NewLedger()
		current.LastUpdated = clock.Now()
		if err := store.Save(ctx, current); err != nil {
			return nil, &domain.PersistenceError{Op: "save", Err: err}
		}
		logger.Info().Msg("no stored ledger found, initialized an empty one")
	} else {
		logger.Info().
			Int("teams", len(current.Teams)).
			Int("matches", len(current.Matches)).
			Msg("ledger loaded")
	}

	s.ledger = current
	return s, nil
}

func (s *LedgerService) CreateTeam(ctx context.Context, name string, markAsHolder bool) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	team, err := s.engine.CreateTeam(next, name, markAsHolder)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return team.Clone(), nil
}

func (s *LedgerService) RenameTeam(ctx context.Context, teamID, name string) (*domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	team, err := s.engine.RenameTeam(next, teamID, name)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return team.Clone(), nil
}

func (s *LedgerService) DeleteTeam(ctx context.Context, teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	if err := s.engine.DeleteTeam(next, teamID); err != nil {
		return err
	}
	return s.commit(ctx, next)
}

func (s *LedgerService) RecordMatch(ctx context.Context, p ledger.MatchParams) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	match, err := s.engine.RecordMatch(next, p)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	cp := *match
	return &cp, nil
}

func (s *LedgerService) UpdateMatch(ctx context.Context, matchID string, p ledger.MatchParams) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	match, err := s.engine.UpdateMatch(next, matchID, p)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	cp := *match
	return &cp, nil
}

func (s *LedgerService) DeleteMatch(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.ledger.Clone()
	if err := s.engine.DeleteMatch(next, matchID); err != nil {
		return err
	}
	return s.commit(ctx, next)
}

// Reset drops every team, match and the current holder.
func (s *LedgerService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Warn().Msg("resetting all ledger data")
	return s.commit(ctx, domain.NewLedger())
}

// Ledger returns a deep copy of the whole aggregate.
func (s *LedgerService) Ledger() *domain.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Clone()
}

// Teams returns copies of all teams in creation order.
func (s *LedgerService) Teams() []*domain.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Team, len(s.ledger.Teams))
	for i, t := range s.ledger.Teams {
		out[i] = t.Clone()
	}
	return out
}

// Matches returns copies of matches sorted newest date first. A limit of 0 or
// less returns all of them.
func (s *LedgerService) Matches(limit int) []*domain.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Match, len(s.ledger.Matches))
	for i, m := range s.ledger.Matches {
		cp := *m
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *LedgerService) commit(ctx context.Context, next *domain.Ledger) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	next.LastUpdated = s.clock.Now()
	if err := s.store.Save(ctx, next); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist ledger, keeping previous state")
		return &domain.PersistenceError{Op: "save", Err: err}
	}

	s.ledger = next
	s.notifier.Broadcast()
	return nil
}
