package httpapi

import (
	"github.com/gorilla/mux"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Apply middleware
	r.Use(recoverMiddleware)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(corsMiddleware)

	// Register routes
	r.HandleFunc("/ingest", handler.HandleIngest).Methods("POST", "OPTIONS")
	r.HandleFunc("/query", handler.HandleQuery).Methods("POST", "OPTIONS")
	r.HandleFunc("/documents/{source}", handler.HandleDeleteDocument).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET")
	r.HandleFunc("/stats", handler.HandleStats).Methods("GET")
	r.HandleFunc("/history", handler.HandleHistory).Methods("GET")

	return r
}
