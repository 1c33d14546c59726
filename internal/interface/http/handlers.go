package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/englishquest/quest-hub/config"
	"github.com/englishquest/quest-hub/internal/application/command"
	"github.com/englishquest/quest-hub/internal/application/query"
	"github.com/englishquest/quest-hub/internal/domain/progression"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports liveness. It never touches dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  s.Uptime().Round(time.Second).String(),
		"version": s.config.Version,
	})
}

// handleReady runs the registered dependency checks.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListRanks handles GET /api/v1/ranks
func (s *Server) handleListRanks(w http.ResponseWriter, r *http.Request) {
	ranks := progression.Ranks()
	writeJSONWithMeta(w, r, http.StatusOK, ranks, &ResponseMeta{TotalCount: len(ranks)})
}

// handleGetRequirements handles GET /api/v1/levels/{level}/requirements
func (s *Server) handleGetRequirements(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil || level < 1 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_level", "Level must be a positive integer")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"level":        level,
		"requirements": progression.RequirementsForLevel(level),
		"rank":         progression.ResolveRank(progression.Leveled{Level: level}),
	})
}

// EvaluateRequest is a stats payload for the stateless evaluation endpoint.
// A missing level selects the legacy rules.
type EvaluateRequest struct {
	Points                int  `json:"points" validate:"min=0"`
	GamesPlayed           int  `json:"games_played" validate:"min=0"`
	GamesWon              int  `json:"games_won" validate:"min=0"`
	CompletedAchievements int  `json:"completed_achievements" validate:"min=0"`
	AchievementsXP        int  `json:"achievements_xp" validate:"min=0"`
	Level                 *int `json:"level,omitempty" validate:"omitempty,min=1"`
}

// Stats converts the payload into an engine snapshot.
func (req EvaluateRequest) Stats() progression.Stats {
	return progression.FromRecord(progression.Counters{
		Points:                     req.Points,
		GamesPlayed:                req.GamesPlayed,
		GamesWon:                   req.GamesWon,
		CompletedAchievementsCount: req.CompletedAchievements,
		AchievementsXP:             req.AchievementsXP,
	}, req.Level)
}

// handleEvaluate handles POST /api/v1/progression/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON", err.Error())
		return
	}

	if err := s.validate.Struct(req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "validation_failed", "Request body failed validation", err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, progression.Evaluate(req.Stats()))
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgression handles GET /api/v1/users/{id}/progression
func (s *Server) handleGetProgression(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProgressionHandler == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Progression handler not configured")
		return
	}

	result, err := s.deps.GetProgressionHandler.Handle(r.Context(), query.GetProgressionQuery{
		UserID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, "get progression", err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleLevelUp handles POST /api/v1/users/{id}/level-up
func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	if s.deps.LevelUpHandler == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Level-up handler not configured")
		return
	}

	userID := r.PathValue("id")
	if s.deps.Features != nil && !s.deps.Features.IsEnabled(config.FeatureLevelUp, &config.FeatureContext{UserID: userID}) {
		writeJSONError(w, r, http.StatusForbidden, "feature_disabled", "Levelling up is not available")
		return
	}

	result, err := s.deps.LevelUpHandler.Handle(r.Context(), command.LevelUpCommand{
		UserID:        userID,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, "level up", err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	limit, ok := getQueryParamInt(r, "limit", shared.DefaultPageSize)
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), query.GetLeaderboardQuery{Limit: limit})
	if err != nil {
		s.writeDomainError(w, r, "get leaderboard", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result.Entries, &ResponseMeta{
		TotalCount: len(result.Entries),
		Source:     result.Source,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain error kinds onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var de *shared.DomainError
	message := "Request failed"
	if errors.As(err, &de) {
		message = de.Message
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", message)
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", message)
	case shared.IsConflict(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", message)
	case errors.Is(err, shared.ErrInvalidState):
		writeJSONError(w, r, http.StatusUnprocessableEntity, "level_up_not_allowed", message)
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", message)
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrTimeout):
		logger.FromContext(r.Context()).Error("dependency failure", logger.Operation(op), logger.Err(err))
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "Service temporarily unavailable")
	default:
		logger.FromContext(r.Context()).Error("request failed", logger.Operation(op), logger.Err(err))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
