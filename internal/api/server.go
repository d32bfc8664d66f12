// Package api exposes snapshots, comparisons and FX rates over HTTP.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/wealth/internal/fxrate"
	"github.com/mtlprog/wealth/internal/snapshot"
)

// NewServer creates an HTTP server with all routes configured.
// Mutating routes require the admin API key when one is set.
func NewServer(port string, snapshots *snapshot.Service, rates *fxrate.Service, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(snapshots, rates, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers every route. rates may be nil, in which case FX routes are not served.
func NewMux(snapshots *snapshot.Service, rates *fxrate.Service, adminAPIKey string) *http.ServeMux {
	handler := NewHandler(snapshots)
	protect := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)
	mux.HandleFunc("GET /api/v1/snapshots/{id}", handler.GetSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots/{id}/liquidity", handler.GetLiquidity)
	mux.HandleFunc("GET /api/v1/snapshots/{id}/aggregate", handler.GetAggregate)
	mux.HandleFunc("GET /api/v1/compare", handler.Compare)
	mux.HandleFunc("GET /api/v1/compare.xlsx", handler.CompareXLSX)
	mux.Handle("POST /api/v1/snapshots", protect(handler.CreateSnapshot))
	mux.Handle("DELETE /api/v1/snapshots/{id}", protect(handler.DeleteSnapshot))

	if rates != nil {
		ratesHandler := NewRatesHandler(rates)
		mux.HandleFunc("GET /api/v1/fx-rates", ratesHandler.GetRates)
		mux.Handle("PUT /api/v1/fx-rates/{currency}", protect(ratesHandler.SetManualRate))
		mux.Handle("DELETE /api/v1/fx-rates/{currency}", protect(ratesHandler.ClearManualRate))
	}

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
