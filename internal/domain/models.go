package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StreakKind tags a team's current run of results.
type StreakKind int

const (
	StreakNone StreakKind = iota
	StreakWin
	StreakLoss
)

func (k StreakKind) String() string {
	switch k {
	case StreakWin:
		return "win"
	case StreakLoss:
		return "loss"
	default:
		return "none"
	}
}

func (k StreakKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *StreakKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "win":
		*k = StreakWin
	case "loss":
		*k = StreakLoss
	case "none", "":
		*k = StreakNone
	default:
		return fmt.Errorf("unknown streak kind %q", s)
	}
	return nil
}

// Streak is the team's active run. Length is at least 1 whenever Kind is not
// StreakNone.
type Streak struct {
	Kind   StreakKind `json:"kind"`
	Length int        `json:"length"`
}

type TeamStreaks struct {
	Current     Streak `json:"current"`
	LongestWin  int    `json:"longestWin"`
	LongestLoss int    `json:"longestLoss"`
}

// Reign is one contiguous interval of title tenure. End is nil while the
// reign is open; Days is the whole-day duration, 0 while open.
type Reign struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	Days  int        `json:"days"`
}

func (r Reign) Open() bool {
	return r.End == nil
}

type Team struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Wins      int         `json:"wins"`
	Losses    int         `json:"losses"`
	IsHolder  bool        `json:"isHolder"`
	Streaks   TeamStreaks `json:"streaks"`
	Reigns    []Reign     `json:"reigns"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// OpenReign returns a pointer to the team's open reign, or nil. The open
// reign, when present, is always the last element of Reigns.
func (t *Team) OpenReign() *Reign {
	if len(t.Reigns) == 0 {
		return nil
	}
	last := &t.Reigns[len(t.Reigns)-1]
	if last.Open() {
		return last
	}
	return nil
}

// Match is an immutable settlement record. WinnerID, PreMatchHolder and
// PostMatchHolder are captured at settlement time; an empty string means
// "none" (vacant title / true draw).
type Match struct {
	ID              string    `json:"id"`
	HomeID          string    `json:"homeId"`
	AwayID          string    `json:"awayId"`
	Date            time.Time `json:"date"`
	HomeScore       int       `json:"homeScore"`
	AwayScore       int       `json:"awayScore"`
	WinnerID        string    `json:"winnerId,omitempty"`
	PreMatchHolder  string    `json:"preMatchHolder,omitempty"`
	PostMatchHolder string    `json:"postMatchHolder,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Ledger is the whole aggregate; every operation reads and writes through it.
// Matches are kept in recording order, which is also settlement order.
type Ledger struct {
	Teams         []*Team   `json:"teams"`
	Matches       []*Match  `json:"matches"`
	CurrentHolder string    `json:"currentHolder,omitempty"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

func NewLedger() *Ledger {
	return &Ledger{
		Teams:   []*Team{},
		Matches: []*Match{},
	}
}

func (l *Ledger) Team(id string) *Team {
	for _, t := range l.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TeamByName matches case-insensitively on the trimmed name.
func (l *Ledger) TeamByName(name string) *Team {
	name = strings.TrimSpace(name)
	for _, t := range l.Teams {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

func (l *Ledger) Match(id string) *Match {
	for _, m := range l.Matches {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Clone deep-copies the aggregate so one copy can be mutated and swapped in
// only after it persisted successfully.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{
		Teams:         make([]*Team, len(l.Teams)),
		Matches:       make([]*Match, len(l.Matches)),
		CurrentHolder: l.CurrentHolder,
		LastUpdated:   l.LastUpdated,
	}
	for i, t := range l.Teams {
		out.Teams[i] = t.Clone()
	}
	for i, m := range l.Matches {
		cp := *m
		out.Matches[i] = &cp
	}
	return out
}

func (t *Team) Clone() *Team {
	cp := *t
	cp.Reigns = make([]Reign, len(t.Reigns))
	for i, r := range t.Reigns {
		cp.Reigns[i] = r
		if r.End != nil {
			end := *r.End
			cp.Reigns[i].End = &end
		}
	}
	return &cp
}
