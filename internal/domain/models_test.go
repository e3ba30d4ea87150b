package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLedger_CloneIsIndependent(t *testing.T) {
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	l := &Ledger{
		Teams: []*Team{{
			ID:   "t1",
			Name: "Team A",
			Wins: 2,
			Reigns: []Reign{
				{Start: end.AddDate(0, 0, -30), End: &end, Days: 30},
				{Start: end},
			},
		}},
		Matches: []*Match{{
			ID: "m1", HomeID: "t1", AwayID: "t2", Date: end, HomeScore: 1,
		}},
		CurrentHolder: "t1",
	}

	cp := l.Clone()
	cp.Teams[0].Wins = 99
	cp.Teams[0].Reigns[0].Days = 99
	*cp.Teams[0].Reigns[0].End = end.AddDate(1, 0, 0)
	cp.Matches[0].HomeScore = 99
	cp.CurrentHolder = "t2"

	require.Equal(t, 2, l.Teams[0].Wins)
	require.Equal(t, 30, l.Teams[0].Reigns[0].Days)
	require.Equal(t, end, *l.Teams[0].Reigns[0].End)
	require.Equal(t, 1, l.Matches[0].HomeScore)
	require.Equal(t, "t1", l.CurrentHolder)
}

func TestTeam_OpenReign(t *testing.T) {
	end := time.Now()
	team := &Team{}
	require.Nil(t, team.OpenReign())

	team.Reigns = []Reign{{Start: end.AddDate(0, 0, -10), End: &end, Days: 10}}
	require.Nil(t, team.OpenReign())

	team.Reigns = append(team.Reigns, Reign{Start: end})
	open := team.OpenReign()
	require.NotNil(t, open)
	require.Equal(t, end, open.Start)
}

func TestLedger_TeamByName(t *testing.T) {
	l := &Ledger{Teams: []*Team{{ID: "t1", Name: "Arsenal"}}}

	require.NotNil(t, l.TeamByName("arsenal"))
	require.NotNil(t, l.TeamByName("  ARSENAL  "))
	require.Nil(t, l.TeamByName("Chelsea"))
}

func TestStreakKind_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		kind StreakKind
		want string
	}{
		{StreakNone, `"none"`},
		{StreakWin, `"win"`},
		{StreakLoss, `"loss"`},
	}
	for _, tc := range tests {
		data, err := json.Marshal(tc.kind)
		require.NoError(t, err)
		require.Equal(t, tc.want, string(data))

		var back StreakKind
		require.NoError(t, json.Unmarshal(data, &back))
		require.Equal(t, tc.kind, back)
	}

	var k StreakKind
	require.Error(t, json.Unmarshal([]byte(`"W3"`), &k), "legacy string tokens are rejected")
}
