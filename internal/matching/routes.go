package matching

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/projectmatch-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Profile
	api.HandleFunc("/profile", handler.GetProfile).Methods("GET")
	api.HandleFunc("/profile", handler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/profile/quiz", handler.SubmitQuiz).Methods("POST")

	// Swipes
	api.HandleFunc("/swipes", handler.Swipe).Methods("POST")
	api.HandleFunc("/swipes/history", handler.GetSwipeHistory).Methods("GET")
	api.HandleFunc("/swipes/stats", handler.GetSwipeStats).Methods("GET")
	api.HandleFunc("/swipes/{id:[0-9]+}", handler.UndoSwipe).Methods("DELETE")

	// Discovery
	api.HandleFunc("/discover", handler.Discover).Methods("GET")
	api.HandleFunc("/compatibility/{userId:[0-9]+}", handler.GetCompatibility).Methods("GET")

	// Matches
	api.HandleFunc("/matches", handler.GetMatches).Methods("GET")
	api.HandleFunc("/matches/stats", handler.GetMatchStats).Methods("GET")
	api.HandleFunc("/matches/{id:[0-9]+}/compatibility", handler.GetMatchCompatibility).Methods("GET")
	api.HandleFunc("/matches/{id:[0-9]+}/unmatch", handler.Unmatch).Methods("POST")

	// Blocking
	api.HandleFunc("/blocks", handler.GetBlockedUsers).Methods("GET")
	api.HandleFunc("/blocks/{userId:[0-9]+}", handler.BlockUser).Methods("POST")
	api.HandleFunc("/blocks/{userId:[0-9]+}", handler.UnblockUser).Methods("DELETE")
}
