package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"championship-ledger/internal/domain"
	"championship-ledger/internal/ledger"
	"championship-ledger/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type nullStore struct{}

func (nullStore) Load(ctx context.Context) (*domain.Ledger, error) { return nil, nil }
func (nullStore) Save(ctx context.Context, l *domain.Ledger) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *service.LedgerService) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	engine := ledger.NewEngine(clock, zerolog.Nop())
	notifier := service.NewNotifier(zerolog.Nop())

	svc, err := service.NewLedgerService(nullStore{}, engine, notifier, clock, zerolog.Nop())
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewLedgerServer(svc, zerolog.Nop()).Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestCreateTeamEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/teams", map[string]any{
		"name": "Team A", "isHolder": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	team := decodeBody[domain.Team](t, resp)
	require.Equal(t, "Team A", team.Name)
	require.True(t, team.IsHolder)
	require.NotEmpty(t, team.ID)
	require.Len(t, team.Reigns, 1)
}

func TestCreateTeamEndpoint_Validation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/teams", map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	require.Contains(t, body, "error")

	// Duplicate name, differing only in case.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/teams", map[string]any{"name": "Team A"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/teams", map[string]any{"name": "TEAM a"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchEndpoints(t *testing.T) {
	ts, svc := newTestServer(t)
	ctx := context.Background()

	a, err := svc.CreateTeam(ctx, "Team A", true)
	require.NoError(t, err)
	b, err := svc.CreateTeam(ctx, "Team B", false)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/matches", map[string]any{
		"homeId": b.ID, "awayId": a.ID, "date": "2025-01-15",
		"homeScore": 2, "awayScore": 0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	match := decodeBody[domain.Match](t, resp)
	require.Equal(t, b.ID, match.WinnerID)
	require.Equal(t, a.ID, match.PreMatchHolder)
	require.Equal(t, b.ID, match.PostMatchHolder)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/matches", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	matches := decodeBody[[]domain.Match](t, resp)
	require.Len(t, matches, 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/matches/"+match.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Empty(t, svc.Matches(0))
	require.Equal(t, a.ID, svc.Ledger().CurrentHolder, "deletion reversed the title change")
}

func TestMatchEndpoint_BadRequests(t *testing.T) {
	ts, svc := newTestServer(t)
	a, err := svc.CreateTeam(context.Background(), "Team A", false)
	require.NoError(t, err)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing fields", map[string]any{"homeId": a.ID}},
		{"same team twice", map[string]any{
			"homeId": a.ID, "awayId": a.ID, "date": "2025-01-15",
		}},
		{"negative score", map[string]any{
			"homeId": a.ID, "awayId": "other", "date": "2025-01-15", "homeScore": -1,
		}},
		{"bad date", map[string]any{
			"homeId": a.ID, "awayId": "other", "date": "January 15th",
		}},
		{"unknown team", map[string]any{
			"homeId": a.ID, "awayId": "ghost", "date": "2025-01-15",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/matches", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/matches", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty body is malformed JSON")
}

func TestDeleteTeamEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	ctx := context.Background()

	a, err := svc.CreateTeam(ctx, "Team A", true)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/teams/"+a.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, svc.Teams())

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/teams/"+a.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLedgerEndpoints(t *testing.T) {
	ts, svc := newTestServer(t)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "Team A", true)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decodeBody[domain.Ledger](t, resp)
	require.Len(t, doc.Teams, 1)
	require.NotEmpty(t, doc.CurrentHolder)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/ledger/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	disposition := resp.Header.Get("Content-Disposition")
	require.True(t, strings.HasPrefix(disposition, "attachment;"), disposition)
	require.Contains(t, disposition, "championship-data-")

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/ledger/reset", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, svc.Teams())
}

func TestRenameTeamEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	a, err := svc.CreateTeam(context.Background(), "Team A", false)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/teams/"+a.ID, map[string]any{
		"name": "Team A United",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	team := decodeBody[domain.Team](t, resp)
	require.Equal(t, "Team A United", team.Name)

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/teams/missing", map[string]any{
		"name": "Whatever",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateMatchEndpoint(t *testing.T) {
	ts, svc := newTestServer(t)
	ctx := context.Background()

	a, err := svc.CreateTeam(ctx, "Team A", true)
	require.NoError(t, err)
	b, err := svc.CreateTeam(ctx, "Team B", false)
	require.NoError(t, err)

	m, err := svc.RecordMatch(ctx, ledger.MatchParams{
		HomeID: a.ID, AwayID: b.ID,
		Date:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		HomeScore: 0, AwayScore: 3,
	})
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/matches/%s", ts.URL, m.ID), map[string]any{
		"homeId": a.ID, "awayId": b.ID, "date": "2025-01-10",
		"homeScore": 3, "awayScore": 0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[domain.Match](t, resp)
	require.Equal(t, a.ID, updated.WinnerID)
	require.Equal(t, a.ID, svc.Ledger().CurrentHolder)
}
