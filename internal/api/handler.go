package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mtlprog/wealth/internal/aggregate"
	"github.com/mtlprog/wealth/internal/compare"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/export"
	"github.com/mtlprog/wealth/internal/snapshot"
	"github.com/mtlprog/wealth/internal/valuation"
)

const maxBodyBytes = 4 << 20

// Handler provides HTTP endpoints for snapshots and their reports.
type Handler struct {
	snapshots *snapshot.Service
}

// NewHandler creates a new API handler.
func NewHandler(snapshots *snapshot.Service) *Handler {
	return &Handler{snapshots: snapshots}
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if snapshots == nil {
		snapshots = []snapshot.Summary{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GetSnapshot handles GET /api/v1/snapshots/{id}.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.snapshots.Get(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "failed to get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type createSnapshotRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Assets      []domain.Asset `json:"assets"`
}

// CreateSnapshot handles POST /api/v1/snapshots.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s, err := h.snapshots.Create(r.Context(), req.Name, req.Description, req.Assets)
	if err != nil {
		var verrs valuation.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("failed to create snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// DeleteSnapshot handles DELETE /api/v1/snapshots/{id}.
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.snapshots.Delete(r.Context(), id); err != nil {
		writeLookupError(w, err, "failed to delete snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Compare handles GET /api/v1/compare?a=&b=&scope=&top=.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	report, ok := h.compare(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CompareXLSX handles GET /api/v1/compare.xlsx, the same report as a workbook download.
func (h *Handler) CompareXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := h.compare(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="comparison.xlsx"`)
	if err := export.WriteTo(w, report); err != nil {
		slog.Error("failed to write comparison workbook", "error", err)
	}
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) (compare.Report, bool) {
	q := r.URL.Query()
	idA, errA := uuid.Parse(q.Get("a"))
	idB, errB := uuid.Parse(q.Get("b"))
	if errA != nil || errB != nil {
		writeError(w, http.StatusBadRequest, "a and b must be snapshot IDs")
		return compare.Report{}, false
	}
	scope, err := compare.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return compare.Report{}, false
	}
	top := 10
	if t := q.Get("top"); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return compare.Report{}, false
		}
		top = n
	}

	report, err := h.snapshots.Compare(r.Context(), idA, idB, scope, top)
	if err != nil {
		writeLookupError(w, err, "failed to compare snapshots")
		return compare.Report{}, false
	}
	return report, true
}

// GetLiquidity handles GET /api/v1/snapshots/{id}/liquidity.
func (h *Handler) GetLiquidity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.snapshots.Liquidity(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "failed to build liquidity matrix")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetAggregate handles GET /api/v1/snapshots/{id}/aggregate?dimension=&denominator=.
// Filters are passed as include.<field>=v1,v2 and exclude.<field>=v1,v2.
func (h *Handler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	dimension := q.Get("dimension")
	if dimension == "" {
		dimension = string(aggregate.FieldClass)
	}
	denomName := q.Get("denominator")
	if denomName == "" {
		denomName = string(aggregate.DenominatorAll)
	}
	denom, err := aggregate.ParseDenominator(denomName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups, err := h.snapshots.Aggregate(r.Context(), id, dimension, denom, parseFilters(q))
	if err != nil {
		if errors.Is(err, snapshot.ErrUnknownDimension) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeLookupError(w, err, "failed to aggregate snapshot")
		return
	}
	if groups == nil {
		groups = aggregate.Groups{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func parseFilters(q map[string][]string) aggregate.Filters {
	var f aggregate.Filters
	for _, field := range aggregate.Fields() {
		if v := splitList(q["include."+string(field)]); len(v) > 0 {
			f = f.IncludeOnly(field, v...)
		}
		if v := splitList(q["exclude."+string(field)]); len(v) > 0 {
			f = f.Without(field, v...)
		}
	}
	return f
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot id")
		return uuid.Nil, false
	}
	return id, true
}

func writeLookupError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, snapshot.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
