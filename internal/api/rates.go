package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/fxrate"
)

// RatesHandler provides HTTP endpoints for the FX rate table.
type RatesHandler struct {
	rates *fxrate.Service
}

// NewRatesHandler creates a new FX rate handler.
func NewRatesHandler(rates *fxrate.Service) *RatesHandler {
	return &RatesHandler{rates: rates}
}

// GetRates handles GET /api/v1/fx-rates, the merged table currently in force.
func (h *RatesHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	fx, err := h.rates.Current(r.Context())
	if err != nil {
		slog.Error("failed to load fx rates", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, fx)
}

type manualRateRequest struct {
	ToILS decimal.Decimal `json:"toILS"`
	ToUSD decimal.Decimal `json:"toUSD"`
}

// SetManualRate handles PUT /api/v1/fx-rates/{currency}.
func (h *RatesHandler) SetManualRate(w http.ResponseWriter, r *http.Request) {
	var req manualRateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.rates.SetManual(r.Context(), r.PathValue("currency"), req.ToILS, req.ToUSD); err != nil {
		if errors.Is(err, fxrate.ErrInvalidRate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save manual rate", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearManualRate handles DELETE /api/v1/fx-rates/{currency}.
func (h *RatesHandler) ClearManualRate(w http.ResponseWriter, r *http.Request) {
	if err := h.rates.ClearManual(r.Context(), r.PathValue("currency")); err != nil {
		if errors.Is(err, fxrate.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no manual rate for currency")
			return
		}
		slog.Error("failed to clear manual rate", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
