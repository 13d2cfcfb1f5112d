// Package api provides HTTP routing for the document assistant.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// SessionHeader carries the tenant id. Requests without it get a fresh id,
// echoed back in the response.
const SessionHeader = "X-Session-ID"

type tenantKey struct{}

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// corsMiddleware adds CORS headers for browser clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		w.Header().Set("Access-Control-Expose-Headers", SessionHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware resolves the tenant for the request.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get(SessionHeader)
		if tenant == "" {
			tenant = uuid.NewString()
		}
		w.Header().Set(SessionHeader, tenant)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, tenant)))
	})
}

func tenantFrom(r *http.Request) string {
	tenant, _ := r.Context().Value(tenantKey{}).(string)
	return tenant
}

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/health", handler.HandleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(sessionMiddleware)
	api.HandleFunc("/upload", handler.HandleUpload).Methods("POST", "OPTIONS")
	api.HandleFunc("/ask", handler.HandleAsk).Methods("POST", "OPTIONS")
	api.HandleFunc("/reset-pdf", handler.HandleReset).Methods("POST", "OPTIONS")
	api.HandleFunc("/history", handler.HandleHistory).Methods("GET")

	return r
}
