package ledger

import (
	"testing"

	"championship-ledger/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestApplyStreak_WinRun(t *testing.T) {
	team := &domain.Team{}

	applyStreak(team, resultWin)
	require.Equal(t, domain.Streak{Kind: domain.StreakWin, Length: 1}, team.Streaks.Current)
	require.Equal(t, 1, team.Streaks.LongestWin)

	applyStreak(team, resultWin)
	applyStreak(team, resultWin)
	require.Equal(t, 3, team.Streaks.Current.Length)
	require.Equal(t, 3, team.Streaks.LongestWin)
}

func TestApplyStreak_LossBreaksWinRun(t *testing.T) {
	team := &domain.Team{}

	applyStreak(team, resultWin)
	applyStreak(team, resultWin)
	applyStreak(team, resultLoss)

	require.Equal(t, domain.Streak{Kind: domain.StreakLoss, Length: 1}, team.Streaks.Current)
	require.Equal(t, 2, team.Streaks.LongestWin, "watermark keeps the broken run")
	require.Equal(t, 1, team.Streaks.LongestLoss)
}

func TestApplyStreak_DrawResetsRunKeepsWatermarks(t *testing.T) {
	team := &domain.Team{}

	applyStreak(team, resultLoss)
	applyStreak(team, resultLoss)
	applyStreak(team, resultDraw)

	require.Equal(t, domain.Streak{}, team.Streaks.Current)
	require.Equal(t, 2, team.Streaks.LongestLoss)

	// A new run starts at 1 after the reset.
	applyStreak(team, resultLoss)
	require.Equal(t, 1, team.Streaks.Current.Length)
	require.Equal(t, 2, team.Streaks.LongestLoss, "shorter run does not lower the watermark")
}

func TestResultFor(t *testing.T) {
	tests := []struct {
		name   string
		winner string
		want   matchResult
	}{
		{"team wins", "home", resultWin},
		{"other participant wins", "away", resultLoss},
		{"no winner", "", resultDraw},
		{"non-participant incumbent", "champ", resultDraw},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resultFor("home", "away", tc.winner))
		})
	}
}
