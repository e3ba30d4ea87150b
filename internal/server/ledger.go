package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"championship-ledger/internal/constants"
	"championship-ledger/internal/domain"
	"championship-ledger/internal/ledger"
	"championship-ledger/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LedgerServer exposes the ledger over a local JSON API.
type LedgerServer struct {
	svc      *service.LedgerService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewLedgerServer(svc *service.LedgerService, logger zerolog.Logger) *LedgerServer {
	return &LedgerServer{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *LedgerServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("GET /api/teams", s.handleListTeams)
	mux.HandleFunc("PATCH /api/teams/{id}", s.handleRenameTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", s.handleDeleteTeam)
	mux.HandleFunc("POST /api/matches", s.handleRecordMatch)
	mux.HandleFunc("GET /api/matches", s.handleListMatches)
	mux.HandleFunc("PUT /api/matches/{id}", s.handleUpdateMatch)
	mux.HandleFunc("DELETE /api/matches/{id}", s.handleDeleteMatch)
	mux.HandleFunc("GET /api/ledger", s.handleGetLedger)
	mux.HandleFunc("GET /api/ledger/export", s.handleExportLedger)
	mux.HandleFunc("POST /api/ledger/reset", s.handleReset)
}

type createTeamRequest struct {
	Name     string `json:"name" validate:"required"`
	IsHolder bool   `json:"isHolder"`
}

type renameTeamRequest struct {
	Name string `json:"name" validate:"required"`
}

type matchRequest struct {
	HomeID    string `json:"homeId" validate:"required"`
	AwayID    string `json:"awayId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	HomeScore int    `json:"homeScore" validate:"gte=0"`
	AwayScore int    `json:"awayScore" validate:"gte=0"`
}

func (r matchRequest) params() (ledger.MatchParams, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.MatchParams{}, domain.NewValidationError("date", err.Error())
	}
	return ledger.MatchParams{
		HomeID:    r.HomeID,
		AwayID:    r.AwayID,
		Date:      date,
		HomeScore: r.HomeScore,
		AwayScore: r.AwayScore,
	}, nil
}

func (s *LedgerServer) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	team, err := s.svc.CreateTeam(r.Context(), req.Name, req.IsHolder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, team)
}

func (s *LedgerServer) handleListTeams(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Teams())
}

func (s *LedgerServer) handleRenameTeam(w http.ResponseWriter, r *http.Request) {
	var req renameTeamRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	team, err := s.svc.RenameTeam(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

func (s *LedgerServer) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTeam(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LedgerServer) handleRecordMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	params, err := req.params()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	match, err := s.svc.RecordMatch(r.Context(), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, match)
}

func (s *LedgerServer) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit := constants.RecentMatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		limit = parsed
	}
	s.writeJSON(w, http.StatusOK, s.svc.Matches(limit))
}

func (s *LedgerServer) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	params, err := req.params()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	match, err := s.svc.UpdateMatch(r.Context(), r.PathValue("id"), params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, match)
}

func (s *LedgerServer) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LedgerServer) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Ledger())
}

func (s *LedgerServer) handleExportLedger(w http.ResponseWriter, r *http.Request) {
	doc := s.svc.Ledger()
	filename := fmt.Sprintf("championship-data-%s.json", time.Now().Format("2006-01-02"))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		s.logger.Error().Err(err).Msg("failed to write ledger export")
	}
}

func (s *LedgerServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *LedgerServer) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "malformed JSON")
	}
	if err := s.validate.Struct(v); err != nil {
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

func (s *LedgerServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (s *LedgerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var persistenceErr *domain.PersistenceError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &persistenceErr):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}
