package server

import (
	"net/http"

	"github.com/bz888/gramfix/internal/api/server/handlers"
	"github.com/gorilla/mux"
)

// correctionPaths are served identically. /api/gemini is kept for clients
// written against the original route.
var correctionPaths = []string{"/correct", "/api/gemini"}

func registerRoutes(router *mux.Router, handler *handlers.Handler) {
	for _, path := range correctionPaths {
		router.HandleFunc(path, handler.CorrectHandler).Methods(http.MethodPost)
		router.HandleFunc(path, handler.StatusHandler).Methods(http.MethodGet)
		router.HandleFunc(path, handler.PreflightHandler).Methods(http.MethodOptions)
	}
	router.HandleFunc("/healthz", handler.HealthHandler).Methods(http.MethodGet)
}

// NewRouter builds the gateway's HTTP handler around handler.
func NewRouter(handler *handlers.Handler) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	registerRoutes(router, handler)
	router.Use(corsMiddleware, loggingMiddleware)
	return router
}
