package ledger

import (
	"math"
	"strings"
	"time"

	"championship-ledger/internal/domain"

	"github.com/jonboulle/clockwork"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Engine applies championship operations to a Ledger aggregate. It performs
// no I/O: callers own the aggregate and decide when a mutated copy becomes
// the current one.
type Engine struct {
	clock  clockwork.Clock
	logger zerolog.Logger
}

func NewEngine(clock clockwork.Clock, logger zerolog.Logger) *Engine {
	return &Engine{clock: clock, logger: logger}
}

// MatchParams is the caller-supplied portion of a match record.
type MatchParams struct {
	HomeID    string
	AwayID    string
	Date      time.Time
	HomeScore int
	AwayScore int
}

// CreateTeam adds a team with zero statistics. With markAsHolder the team
// takes the title immediately and opens its first reign at the current time.
func (e *Engine) CreateTeam(l *domain.Ledger, name string, markAsHolder bool) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if l.TeamByName(name) != nil {
		return nil, domain.NewValidationError("name", "a team with this name already exists")
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	team := &domain.Team{
		ID:        id,
		Name:      name,
		Reigns:    []domain.Reign{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if markAsHolder {
		for _, t := range l.Teams {
			t.IsHolder = false
		}
		// An explicit takeover ends the displaced incumbent's reign, so no
		// team is ever left with a stale open reign.
		if l.CurrentHolder != "" {
			if prev := l.Team(l.CurrentHolder); prev != nil {
				closeOpenReign(prev, now)
			}
		}
		team.IsHolder = true
		l.CurrentHolder = team.ID
		team.Reigns = append(team.Reigns, domain.Reign{Start: now})
	}

	l.Teams = append(l.Teams, team)

	e.logger.Info().
		Str("team_id", team.ID).
		Str("name", team.Name).
		Bool("holder", markAsHolder).
		Msg("team created")
	return team, nil
}

// RenameTeam changes a team's display name, enforcing the same uniqueness
// rule as CreateTeam.
func (e *Engine) RenameTeam(l *domain.Ledger, teamID, name string) (*domain.Team, error) {
	team := l.Team(teamID)
	if team == nil {
		return nil, domain.NewNotFoundError("team", teamID)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if existing := l.TeamByName(name); existing != nil && existing.ID != teamID {
		return nil, domain.NewValidationError("name", "a team with this name already exists")
	}

	team.Name = name
	team.UpdatedAt = e.clock.Now()
	return team, nil
}

// RecordMatch settles a match: winner, counters, streaks, and the holder
// transition, then appends the record. Settlement is strictly in recording
// order; match dates are not re-sorted even when entered out of order.
func (e *Engine) RecordMatch(l *domain.Ledger, p MatchParams) (*domain.Match, error) {
	if err := e.validateMatch(l, p); err != nil {
		return nil, err
	}

	pre := l.CurrentHolder

	var winner string
	switch {
	case p.HomeScore > p.AwayScore:
		winner = p.HomeID
	case p.AwayScore > p.HomeScore:
		winner = p.AwayID
	default:
		// A tie goes to the incumbent; a vacant title stays vacant.
		winner = pre
	}

	post := pre
	if winner != "" {
		post = winner
	}

	home := l.Team(p.HomeID)
	away := l.Team(p.AwayID)

	// Counters move only when the winner is one of the two participants. A
	// tie resolved to a non-participant incumbent must not inflate its record.
	switch winner {
	case p.HomeID:
		home.Wins++
		away.Losses++
	case p.AwayID:
		away.Wins++
		home.Losses++
	}

	applyStreak(home, resultFor(p.HomeID, p.AwayID, winner))
	applyStreak(away, resultFor(p.AwayID, p.HomeID, winner))

	if post != pre {
		for _, t := range l.Teams {
			t.IsHolder = false
		}
		next := l.Team(post)
		next.IsHolder = true
		l.CurrentHolder = post
		next.Reigns = append(next.Reigns, domain.Reign{Start: p.Date})

		if pre != "" {
			if prev := l.Team(pre); prev != nil {
				closeOpenReign(prev, p.Date)
			}
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	home.UpdatedAt = now
	away.UpdatedAt = now

	match := &domain.Match{
		ID:              id,
		HomeID:          p.HomeID,
		AwayID:          p.AwayID,
		Date:            p.Date,
		HomeScore:       p.HomeScore,
		AwayScore:       p.AwayScore,
		WinnerID:        winner,
		PreMatchHolder:  pre,
		PostMatchHolder: post,
		CreatedAt:       now,
	}
	l.Matches = append(l.Matches, match)

	e.logger.Debug().
		Str("match_id", match.ID).
		Str("winner_id", winner).
		Str("pre_holder", pre).
		Str("post_holder", post).
		Msg("match settled")
	return match, nil
}

// ReverseMatch undoes a match's settlement without removing the record.
// Streak reversal is deliberately simplified: both participants' current
// streak resets to none instead of being recomputed from the match log.
func (e *Engine) ReverseMatch(l *domain.Ledger, matchID string) (*domain.Match, error) {
	m := l.Match(matchID)
	if m == nil {
		return nil, domain.NewNotFoundError("match", matchID)
	}
	e.reverse(l, m)
	return m, nil
}

// UpdateMatch replaces a settled match with new parameters. The old
// settlement is reversed and the new one applied, so the updated match
// re-enters at the end of recording order.
func (e *Engine) UpdateMatch(l *domain.Ledger, matchID string, p MatchParams) (*domain.Match, error) {
	m := l.Match(matchID)
	if m == nil {
		return nil, domain.NewNotFoundError("match", matchID)
	}
	if err := e.validateMatch(l, p); err != nil {
		return nil, err
	}
	e.reverse(l, m)
	removeMatch(l, matchID)
	resyncHolder(l)
	return e.RecordMatch(l, p)
}

// DeleteMatch reverses the match's settlement and removes the record.
func (e *Engine) DeleteMatch(l *domain.Ledger, matchID string) error {
	if _, err := e.ReverseMatch(l, matchID); err != nil {
		return err
	}
	removeMatch(l, matchID)
	resyncHolder(l)
	return nil
}

// DeleteTeam reverses every match the team took part in, newest recording
// first, removes those matches, and then removes the team. The remaining
// teams keep internally consistent statistics; the title follows the most
// recently settled remaining match, or becomes vacant if the deleted team
// held it with no settlement left to pass it on.
func (e *Engine) DeleteTeam(l *domain.Ledger, teamID string) error {
	team := l.Team(teamID)
	if team == nil {
		return domain.NewNotFoundError("team", teamID)
	}

	reversed := 0
	for i := len(l.Matches) - 1; i >= 0; i-- {
		m := l.Matches[i]
		if m.HomeID != teamID && m.AwayID != teamID {
			continue
		}
		e.reverse(l, m)
		l.Matches = append(l.Matches[:i], l.Matches[i+1:]...)
		reversed++
	}

	for i, t := range l.Teams {
		if t.ID == teamID {
			l.Teams = append(l.Teams[:i], l.Teams[i+1:]...)
			break
		}
	}
	resyncHolder(l)

	e.logger.Info().
		Str("team_id", teamID).
		Int("matches_reversed", reversed).
		Msg("team deleted")
	return nil
}

func (e *Engine) validateMatch(l *domain.Ledger, p MatchParams) error {
	if p.HomeID == p.AwayID {
		return domain.NewValidationError("awayId", "home and away teams must differ")
	}
	if p.Date.IsZero() {
		return domain.NewValidationError("date", "must be set")
	}
	if p.HomeScore < 0 {
		return domain.NewValidationError("homeScore", "must not be negative")
	}
	if p.AwayScore < 0 {
		return domain.NewValidationError("awayScore", "must not be negative")
	}
	if l.Team(p.HomeID) == nil {
		return domain.NewValidationError("homeId", "unknown team")
	}
	if l.Team(p.AwayID) == nil {
		return domain.NewValidationError("awayId", "unknown team")
	}
	return nil
}

func (e *Engine) reverse(l *domain.Ledger, m *domain.Match) {
	home := l.Team(m.HomeID)
	away := l.Team(m.AwayID)

	switch m.WinnerID {
	case m.HomeID:
		if home != nil {
			home.Wins--
		}
		if away != nil {
			away.Losses--
		}
	case m.AwayID:
		if away != nil {
			away.Wins--
		}
		if home != nil {
			home.Losses--
		}
	}

	// Simplified reversal: the prior streak is not recomputed from history.
	if home != nil {
		home.Streaks.Current = domain.Streak{}
	}
	if away != nil {
		away.Streaks.Current = domain.Streak{}
	}

	if m.PostMatchHolder != m.PreMatchHolder {
		if next := l.Team(m.PostMatchHolder); next != nil {
			next.IsHolder = false
			if n := len(next.Reigns); n > 0 {
				next.Reigns = next.Reigns[:n-1]
			}
		}
		if m.PreMatchHolder != "" {
			if prev := l.Team(m.PreMatchHolder); prev != nil {
				prev.IsHolder = true
				prev.Reigns = append(prev.Reigns, domain.Reign{Start: m.Date})
			}
		}
		l.CurrentHolder = m.PreMatchHolder
	}
}

// resyncHolder re-derives the title after match records have been removed.
// Reversal only unwinds the matches it touches, so when an older holder
// transition is undone the flags it restores can disagree with settlements
// recorded afterwards. The most recently settled remaining match is
// authoritative; with no matches left the reversal result stands, unless it
// names a team that no longer exists.
func resyncHolder(l *domain.Ledger) {
	holder := l.CurrentHolder
	if n := len(l.Matches); n > 0 {
		holder = l.Matches[n-1].PostMatchHolder
	}
	if holder != "" && l.Team(holder) == nil {
		holder = ""
	}
	l.CurrentHolder = holder
	for _, t := range l.Teams {
		t.IsHolder = t.ID == holder
	}
	if holder != "" {
		h := l.Team(holder)
		if h.OpenReign() == nil {
			start := h.CreatedAt
			if n := len(l.Matches); n > 0 {
				start = l.Matches[n-1].Date
			}
			h.Reigns = append(h.Reigns, domain.Reign{Start: start})
		}
	}
}

func removeMatch(l *domain.Ledger, matchID string) {
	for i, m := range l.Matches {
		if m.ID == matchID {
			l.Matches = append(l.Matches[:i], l.Matches[i+1:]...)
			return
		}
	}
}

func closeOpenReign(t *domain.Team, end time.Time) {
	open := t.OpenReign()
	if open == nil {
		return
	}
	e := end
	open.End = &e
	open.Days = wholeDays(open.Start, end)
}

// wholeDays rounds the interval to whole days, so same-day transitions count
// as 0 and partial days round to the nearest boundary.
func wholeDays(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}
