package ledger

import "championship-ledger/internal/domain"

type matchResult int

const (
	resultDraw matchResult = iota
	resultWin
	resultLoss
)

// resultFor classifies the outcome for one participant: a win if the team is
// the winner, a loss if the other participant won, a draw otherwise (true tie
// with no incumbent, or a tie resolved to a non-participant incumbent).
func resultFor(teamID, otherID, winnerID string) matchResult {
	switch winnerID {
	case teamID:
		return resultWin
	case otherID:
		return resultLoss
	default:
		return resultDraw
	}
}

// applyStreak extends or restarts the team's current run and raises the
// longest-streak watermarks. A draw resets the current run and leaves the
// watermarks alone.
func applyStreak(t *domain.Team, r matchResult) {
	switch r {
	case resultWin:
		if t.Streaks.Current.Kind == domain.StreakWin {
			t.Streaks.Current.Length++
		} else {
			t.Streaks.Current = domain.Streak{Kind: domain.StreakWin, Length: 1}
		}
		if t.Streaks.Current.Length > t.Streaks.LongestWin {
			t.Streaks.LongestWin = t.Streaks.Current.Length
		}
	case resultLoss:
		if t.Streaks.Current.Kind == domain.StreakLoss {
			t.Streaks.Current.Length++
		} else {
			t.Streaks.Current = domain.Streak{Kind: domain.StreakLoss, Length: 1}
		}
		if t.Streaks.Current.Length > t.Streaks.LongestLoss {
			t.Streaks.LongestLoss = t.Streaks.Current.Length
		}
	default:
		t.Streaks.Current = domain.Streak{}
	}
}
