package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/wealth/internal/aggregate"
	"github.com/mtlprog/wealth/internal/compare"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/fxrate"
	"github.com/mtlprog/wealth/internal/liquidity"
	"github.com/mtlprog/wealth/internal/snapshot"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

var testIDs = []uuid.UUID{
	uuid.MustParse("6f1b7c5e-0d4a-4a8e-9d7e-3f0b1f2a9c01"),
	uuid.MustParse("6f1b7c5e-0d4a-4a8e-9d7e-3f0b1f2a9c02"),
}

type mockSnapshotRepo struct {
	byID          map[uuid.UUID]*domain.PortfolioSnapshot
	saved         *domain.PortfolioSnapshot
	lastListLimit int
}

func (m *mockSnapshotRepo) Save(_ context.Context, s *domain.PortfolioSnapshot) error {
	m.saved = s
	return nil
}

func (m *mockSnapshotRepo) Get(_ context.Context, id uuid.UUID) (*domain.PortfolioSnapshot, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, snapshot.ErrNotFound
	}
	return s, nil
}

func (m *mockSnapshotRepo) List(_ context.Context, limit int) ([]snapshot.Summary, error) {
	m.lastListLimit = limit
	var out []snapshot.Summary
	for _, s := range m.byID {
		out = append(out, snapshot.Summary{ID: s.ID, Name: s.Name, Totals: s.Totals, CreatedAt: s.CreatedAt})
	}
	return out, nil
}

func (m *mockSnapshotRepo) Latest(_ context.Context, _ int) ([]domain.PortfolioSnapshot, error) {
	return nil, nil
}

func (m *mockSnapshotRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return snapshot.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockRateRepo struct {
	rates []fxrate.Rate
}

func (m *mockRateRepo) SaveRate(_ context.Context, r fxrate.Rate) error {
	m.rates = append(m.rates, r)
	return nil
}

func (m *mockRateRepo) GetAllRates(_ context.Context) ([]fxrate.Rate, error) {
	return m.rates, nil
}

func (m *mockRateRepo) DeleteRate(_ context.Context, _ string, _ fxrate.Source) error {
	return fxrate.ErrNotFound
}

func newTestRates() *fxrate.Service {
	return fxrate.NewService(&mockRateRepo{rates: []fxrate.Rate{
		{Currency: "USD", Source: fxrate.SourceFetched, ToILS: d("4"), UpdatedAt: time.Now()},
	}})
}

func stock(name, qty, price string) domain.Asset {
	return domain.Asset{
		Name: name, Class: domain.ClassPublicEquity, SubClass: "Stock", OriginCurrency: "USD",
		AccountEntity: "Personal", AccountBank: "Leumi", Beneficiary: "Self",
		Quantity: d(qty), Price: dp(price),
	}
}

func newTestService() (*snapshot.Service, *mockSnapshotRepo) {
	fx := domain.FXRates{"ILS": {ToILS: d("1")}, "USD": {ToILS: d("4")}}
	a := snapshot.Capture("Q1", "", []domain.Asset{stock("AssetX", "10", "100")}, fx, "USD", time.Now())
	b := snapshot.Capture("Q2", "", []domain.Asset{stock("AssetX", "10", "120"), stock("NewCo", "1", "50")}, fx, "USD", time.Now())
	a.ID, b.ID = testIDs[0], testIDs[1]

	repo := &mockSnapshotRepo{byID: map[uuid.UUID]*domain.PortfolioSnapshot{a.ID: a, b.ID: b}}
	svc := snapshot.NewService(repo, newTestRates(), snapshot.Options{
		Classifier: liquidity.NewClassifier(nil, []string{"NewCo"}),
	})
	return svc, repo
}

func serve(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	svc, _ := newTestService()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	NewMux(svc, newTestRates(), "").ServeHTTP(w, req)
	return w
}

func TestGetSnapshot(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/api/v1/snapshots/" + testIDs[0].String(), http.StatusOK},
		{"unknown id", "/api/v1/snapshots/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", "/api/v1/snapshots/latest", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestGetSnapshotBody(t *testing.T) {
	w := serve(t, http.MethodGet, "/api/v1/snapshots/"+testIDs[1].String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Q2", got.Name)
	assert.Len(t, got.Assets, 2)
	assert.True(t, got.Totals.Total.Equal(d("1250")))
}

func TestListSnapshotsLimit(t *testing.T) {
	tests := []struct {
		query     string
		wantLimit int
	}{
		{"", 30},
		{"?limit=5", 5},
		{"?limit=1000", 365},
		{"?limit=-1", 30},
		{"?limit=abc", 30},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc, repo := newTestService()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshots"+tt.query, nil)
			w := httptest.NewRecorder()

			NewHandler(svc).ListSnapshots(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantLimit, repo.lastListLimit)
		})
	}
}

func TestCreateSnapshot(t *testing.T) {
	valid, _ := json.Marshal(map[string]any{
		"name":   "Q3",
		"assets": []domain.Asset{stock("ACME", "1", "10")},
	})
	invalid, _ := json.Marshal(map[string]any{
		"name":   "Q3",
		"assets": []domain.Asset{{Class: domain.ClassPublicEquity, SubClass: "Stock", OriginCurrency: "USD"}},
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"created", string(valid), http.StatusCreated},
		{"validation errors", string(invalid), http.StatusUnprocessableEntity},
		{"missing name", `{"assets":[]}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, http.MethodPost, "/api/v1/snapshots", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestCreateSnapshotDerivesBeneficiary(t *testing.T) {
	svc, repo := newTestService()
	mux := NewMux(svc, nil, "")

	body := `{"name": "Q3", "assets": [
	  {"name": "ACME", "class": "Public Equity", "subClass": "Stock", "originCurrency": "USD",
	   "accountEntity": "Personal", "accountBank": "Leumi", "quantity": "3", "price": "100"}
	]}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/snapshots", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created domain.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Assets, 1)
	assert.Equal(t, "Self", created.Assets[0].Beneficiary)

	repo.byID[created.ID] = repo.saved
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshots/"+created.ID.String()+"/liquidity", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var m liquidity.Matrix
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 0, m.Skipped)
	assert.True(t, m.GrandTotal.Equal(d("300")), "grand = %s", m.GrandTotal)
	assert.True(t, m.ColumnTotals["Self"].Equal(d("300")))
}

func TestDeleteSnapshot(t *testing.T) {
	svc, repo := newTestService()
	mux := NewMux(svc, nil, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/snapshots/"+testIDs[0].String(), nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, repo.byID, testIDs[0])

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/snapshots/"+testIDs[0].String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompare(t *testing.T) {
	target := "/api/v1/compare?a=" + testIDs[0].String() + "&b=" + testIDs[1].String() + "&scope=public_equity&top=1"
	w := serve(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report compare.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, compare.ScopePublicEquity, report.Scope)
	require.Len(t, report.TopMovers, 1)
	assert.Equal(t, "AssetX", report.TopMovers[0].AssetName)
	require.NotNil(t, report.PublicEquity[0].PriceChangePercent)
	assert.True(t, report.PublicEquity[0].PriceChangePercent.Equal(d("20")))
	require.Len(t, report.Positions, 1)
	assert.Equal(t, domain.ChangeNew, report.Positions[0].ChangeType)
}

func TestCompareBadRequests(t *testing.T) {
	a, b := testIDs[0].String(), testIDs[1].String()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"missing ids", "", http.StatusBadRequest},
		{"bad scope", "?a=" + a + "&b=" + b + "&scope=art", http.StatusBadRequest},
		{"bad top", "?a=" + a + "&b=" + b + "&top=-2", http.StatusBadRequest},
		{"unknown snapshot", "?a=" + a + "&b=" + uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, http.MethodGet, "/api/v1/compare"+tt.query, "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCompareXLSX(t *testing.T) {
	target := "/api/v1/compare.xlsx?a=" + testIDs[0].String() + "&b=" + testIDs[1].String()
	w := serve(t, http.MethodGet, target, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "comparison.xlsx")
	assert.Equal(t, "PK", w.Body.String()[:2], "xlsx is a zip archive")
}

func TestGetLiquidity(t *testing.T) {
	w := serve(t, http.MethodGet, "/api/v1/snapshots/"+testIDs[1].String()+"/liquidity", "")
	require.Equal(t, http.StatusOK, w.Code)

	var m liquidity.Matrix
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.True(t, m.GrandTotal.Equal(d("1250")))
	assert.True(t, m.Cell(domain.LiquidityEquitiesLimited, "Self").Equal(d("50")))
}

func TestGetAggregate(t *testing.T) {
	base := "/api/v1/snapshots/" + testIDs[1].String() + "/aggregate"

	t.Run("default dimension and denominator", func(t *testing.T) {
		w := serve(t, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, w.Code)

		var groups aggregate.Groups
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
		require.Len(t, groups, 1)
		assert.Equal(t, string(domain.ClassPublicEquity), groups[0].Key)
		assert.True(t, groups[0].Percentage.Equal(d("100")))
	})

	t.Run("filters", func(t *testing.T) {
		w := serve(t, http.MethodGet, base+"?dimension=liquidity&exclude.class=Public%20Equity", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("bad dimension", func(t *testing.T) {
		w := serve(t, http.MethodGet, base+"?dimension=color", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad denominator", func(t *testing.T) {
		w := serve(t, http.MethodGet, base+"?denominator=half", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRates(t *testing.T) {
	t.Run("current table", func(t *testing.T) {
		w := serve(t, http.MethodGet, "/api/v1/fx-rates", "")
		require.Equal(t, http.StatusOK, w.Code)

		var fx domain.FXRates
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fx))
		assert.True(t, fx["ILS"].ToILS.Equal(d("1")))
		assert.True(t, fx["USD"].ToILS.Equal(d("4")))
	})

	t.Run("manual override", func(t *testing.T) {
		w := serve(t, http.MethodPut, "/api/v1/fx-rates/eur", `{"toILS":"4.05"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("invalid override", func(t *testing.T) {
		w := serve(t, http.MethodPut, "/api/v1/fx-rates/USD", `{"toILS":"0"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clear missing override", func(t *testing.T) {
		w := serve(t, http.MethodDelete, "/api/v1/fx-rates/USD", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
