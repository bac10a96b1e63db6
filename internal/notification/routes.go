package notification

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/projectmatch-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/notifications").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Inbox
	api.HandleFunc("", handler.GetNotifications).Methods("GET")
	api.HandleFunc("/read-all", handler.MarkAllAsRead).Methods("PUT")
	api.HandleFunc("/{id:[0-9]+}/read", handler.MarkAsRead).Methods("PUT")

	// Push tokens
	api.HandleFunc("/push-token", handler.RegisterPushToken).Methods("POST")
	api.HandleFunc("/push-token", handler.UnregisterPushToken).Methods("DELETE")

	// Realtime
	api.HandleFunc("/ws", handler.Stream).Methods("GET")
}
