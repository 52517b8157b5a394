package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pathwise/pathwise-backend/internal/apperr"
	"github.com/pathwise/pathwise-backend/internal/domain"
	"github.com/pathwise/pathwise-backend/internal/logger"
	"github.com/pathwise/pathwise-backend/internal/services"
)

type RecommendationHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recSvc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:    log.With("handler", "RecommendationHandler"),
		recSvc: recSvc,
	}
}

// GET /api/users/:id/recommendations
func (h *RecommendationHandler) GetPersonalized(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	recs, err := h.recSvc.GetPersonalizedRecommendations(c.Request.Context(), userID, optionsFromQuery(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs})
}

// GET /api/trending?user_id=...
func (h *RecommendationHandler) GetTrending(c *gin.Context) {
	var userID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
			return
		}
		userID = &id
	}
	items, err := h.recSvc.GetTrendingWithPersonalization(c.Request.Context(), userID, optionsFromQuery(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"content": items})
}

// POST /api/users/:id/interactions/:contentId
func (h *RecommendationHandler) RecordInteraction(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	var body domain.Interaction
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.recSvc.RecordInteraction(c.Request.Context(), userID, contentID, body); err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recorded": true})
}

// POST /api/users/:id/embedding/regenerate
func (h *RecommendationHandler) RegenerateEmbedding(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	regenerated, err := h.recSvc.RegenerateProfileEmbedding(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"regenerated": regenerated})
}

func (h *RecommendationHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	default:
		h.log.Error("Recommendation request failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

func optionsFromQuery(c *gin.Context) services.Options {
	opts := services.Options{}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.ParseBool(c.Query("exclude_viewed")); err == nil {
		opts.ExcludeViewed = v
	}
	if raw := strings.TrimSpace(c.Query("content_types")); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.ContentTypes = append(opts.ContentTypes, t)
			}
		}
	}
	opts.Difficulty = strings.TrimSpace(c.Query("difficulty"))
	if v, err := strconv.Atoi(c.Query("max_duration")); err == nil && v > 0 {
		opts.MaxDurationSeconds = v
	}
	return opts
}
