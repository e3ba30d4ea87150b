package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"championship-ledger/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T) *SnapshotRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE ledger_snapshots (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			document TEXT NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)
	`)
	require.NoError(t, err)

	return NewSnapshotRepository(db, zerolog.Nop())
}

func TestSnapshotRepository_LoadEmpty(t *testing.T) {
	repo := testRepo(t)

	ledger, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, ledger, "an empty store yields no document, not an error")
}

func TestSnapshotRepository_SaveLoadRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	in := &domain.Ledger{
		Teams: []*domain.Team{{
			ID:     "t1",
			Name:   "Team A",
			Wins:   3,
			Losses: 1,
			Streaks: domain.TeamStreaks{
				Current:    domain.Streak{Kind: domain.StreakWin, Length: 2},
				LongestWin: 3,
			},
			IsHolder: true,
			Reigns: []domain.Reign{
				{Start: end.AddDate(0, 0, -30), End: &end, Days: 30},
				{Start: end},
			},
		}},
		Matches: []*domain.Match{{
			ID: "m1", HomeID: "t1", AwayID: "t2",
			Date: end, HomeScore: 2, AwayScore: 1,
			WinnerID: "t1", PreMatchHolder: "t2", PostMatchHolder: "t1",
		}},
		CurrentHolder: "t1",
		LastUpdated:   end,
	}

	require.NoError(t, repo.Save(ctx, in))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestSnapshotRepository_SaveReplacesDocument(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := domain.NewLedger()
	first.CurrentHolder = "t1"
	first.LastUpdated = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, first))

	second := domain.NewLedger()
	second.CurrentHolder = "t2"
	second.LastUpdated = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, second))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "t2", out.CurrentHolder, "later save wins")
}
