package matching

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/projectmatch-backend/internal/auth"
	"github.com/imadgeboyega/projectmatch-backend/internal/common/utils"
)

const (
	defaultHistoryLimit = 20
	maxDiscoverLimit    = 50
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Swipes

func (h *Handler) Swipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto SwipeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := h.service.Swipe(r.Context(), userID, &dto)
	if err != nil {
		respondWithServiceError(w, err, "Failed to record swipe")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, result)
}

func (h *Handler) UndoSwipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	swipeID, ok := pathID(w, r, "id", "Invalid swipe ID")
	if !ok {
		return
	}

	if err := h.service.UndoSwipe(r.Context(), userID, swipeID); err != nil {
		respondWithServiceError(w, err, "Failed to undo swipe")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Swipe undone successfully")
}

func (h *Handler) GetSwipeHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := &SwipeHistoryParams{
		Type:   query.Get("type"),
		Action: query.Get("action"),
		Limit:  defaultHistoryLimit,
	}
	if params.Type == "" {
		params.Type = "given"
	}
	if limit := query.Get("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		params.Limit = l
	}
	if offset := query.Get("offset"); offset != "" {
		o, err := strconv.Atoi(offset)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
		params.Offset = o
	}
	if err := utils.ValidateStruct(params); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	history, err := h.service.GetSwipeHistory(r.Context(), userID, params)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get swipe history")
		return
	}

	utils.RespondWithData(w, http.StatusOK, history)
}

func (h *Handler) GetSwipeStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetSwipeStats(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get swipe stats")
		return
	}

	utils.RespondWithData(w, http.StatusOK, stats)
}

// Discovery

func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := &DiscoverParams{
		Department:   query.Get("department"),
		Availability: query.Get("availability"),
	}
	if limit := query.Get("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l < 1 || l > maxDiscoverLimit {
			utils.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		params.Limit = l
	}
	if skills := query.Get("skills"); skills != "" {
		for _, skill := range strings.Split(skills, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				params.Skills = append(params.Skills, skill)
			}
		}
	}

	feed, err := h.service.Discover(r.Context(), userID, params)
	if err != nil {
		respondWithServiceError(w, err, "Failed to build discovery feed")
		return
	}
	if feed == nil {
		feed = []*FeedEntry{}
	}

	utils.RespondWithData(w, http.StatusOK, map[string]interface{}{
		"users":           feed,
		"filters_applied": params,
	})
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	otherUserID, ok := pathID(w, r, "userId", "Invalid user ID")
	if !ok {
		return
	}

	report, err := h.service.GetCompatibility(r.Context(), userID, otherUserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to calculate compatibility")
		return
	}

	utils.RespondWithData(w, http.StatusOK, report)
}

// Matches

func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	matches, err := h.service.GetMatches(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get matches")
		return
	}

	utils.RespondWithData(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"total":   len(matches),
	})
}

func (h *Handler) GetMatchCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	matchID, ok := pathID(w, r, "id", "Invalid match ID")
	if !ok {
		return
	}

	report, err := h.service.GetMatchCompatibility(r.Context(), matchID, userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get match compatibility")
		return
	}

	utils.RespondWithData(w, http.StatusOK, report)
}

func (h *Handler) GetMatchStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetMatchStats(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get match stats")
		return
	}

	utils.RespondWithData(w, http.StatusOK, stats)
}

func (h *Handler) Unmatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	matchID, ok := pathID(w, r, "id", "Invalid match ID")
	if !ok {
		return
	}

	if err := h.service.Unmatch(r.Context(), matchID, userID); err != nil {
		respondWithServiceError(w, err, "Failed to unmatch")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Match removed successfully")
}

// Blocking

func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	blockedID, ok := pathID(w, r, "userId", "Invalid user ID")
	if !ok {
		return
	}

	var dto BlockUserDTO
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if err := utils.ValidateStruct(&dto); err != nil {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	if err := h.service.BlockUser(r.Context(), userID, blockedID, dto.Reason); err != nil {
		respondWithServiceError(w, err, "Failed to block user")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "User blocked successfully")
}

func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	blockedID, ok := pathID(w, r, "userId", "Invalid user ID")
	if !ok {
		return
	}

	if err := h.service.UnblockUser(r.Context(), userID, blockedID); err != nil {
		respondWithServiceError(w, err, "Failed to unblock user")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "User unblocked successfully")
}

func (h *Handler) GetBlockedUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	blocked, err := h.service.GetBlockedUsers(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get blocked users")
		return
	}

	utils.RespondWithData(w, http.StatusOK, blocked)
}

// Profile

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get profile")
		return
	}

	utils.RespondWithData(w, http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, &dto)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update profile")
		return
	}

	utils.RespondWithData(w, http.StatusOK, profile)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto SubmitQuizDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile, err := h.service.SubmitQuiz(r.Context(), userID, &dto)
	if err != nil {
		respondWithServiceError(w, err, "Failed to submit quiz")
		return
	}

	utils.RespondWithData(w, http.StatusOK, profile)
}

// Helpers

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, message)
		return 0, false
	}
	return id, true
}

// respondWithServiceError maps service errors to status codes. Anything
// unrecognised is reported as fallback with a 500.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCannotSwipeSelf),
		errors.Is(err, ErrCannotBlockSelf),
		errors.Is(err, ErrSameUser),
		errors.Is(err, ErrAlreadySwiped),
		errors.Is(err, ErrUndoWindowExpired),
		errors.Is(err, ErrUndoMatched):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrUserBlocked),
		errors.Is(err, ErrNotMatched):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyBlocked):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrSwipeNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrNotBlocked):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
