package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/imadgeboyega/projectmatch-backend/internal/auth"
	"github.com/imadgeboyega/projectmatch-backend/internal/common/utils"
)

type Handler struct {
	service Service
	hub     *Hub
	log     logrus.FieldLogger
}

func NewHandler(service Service, hub *Hub, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{service: service, hub: hub, log: log}
}

// GetNotifications lists the caller's notifications, newest first
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	unreadOnly := query.Get("unread_only") == "true"

	response, err := h.service.GetNotifications(r.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("failed to get notifications")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get notifications")
		return
	}

	utils.RespondWithData(w, http.StatusOK, response)
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notificationID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || notificationID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if _, err := h.service.MarkAsRead(r.Context(), userID, []int64{notificationID}); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark notification as read")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Notification marked as read")
}

// MarkAllAsRead marks the listed notifications read, or every unread one when the body is empty
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req MarkReadRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	updated, err := h.service.MarkAsRead(r.Context(), userID, req.NotificationIDs)
	if err != nil && !errors.Is(err, ErrNotificationNotFound) {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to mark notifications as read")
		return
	}

	utils.RespondWithData(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req RegisterPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	token, err := h.service.RegisterPushToken(r.Context(), userID, &req)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("failed to register push token")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register push token")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, token)
}

func (h *Handler) UnregisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UnregisterPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.service.UnregisterPushToken(r.Context(), userID, req.DeviceID); err != nil {
		if errors.Is(err, ErrPushTokenNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to unregister push token")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Push token removed")
}

// Stream upgrades to a websocket that receives new_like, new_superlike and new_match events
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.hub == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Realtime notifications are unavailable")
		return
	}

	// The upgrader has already written an HTTP error on failure
	if err := h.hub.ServeWS(w, r, userID); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("websocket connection rejected")
	}
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}
