package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unit-telemetry-backend/internal/db"
	"unit-telemetry-backend/internal/model"
)

func TestRoot(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"unit-telemetry-backend"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateAndGetUnit(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "POST", "/v1/units", map[string]any{"name": "Conveyor-3", "location": "Dock 4"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Unit](t, w)
	assert.Equal(t, "Conveyor-3", created.Name)
	require.NotNil(t, created.Location)
	assert.Equal(t, "Dock 4", *created.Location)
	assert.True(t, created.IsActive)
	assert.False(t, created.CreatedAt.IsZero())

	w = doRequest(r, "GET", "/v1/units/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Unit](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateUnitErrors(t *testing.T) {
	r, _ := setupRouter(t)

	testCases := []struct {
		name     string
		body     any
		wantCode int
		wantKind string
	}{
		{name: "duplicate name", body: map[string]any{"name": "Assembly-Line-1"}, wantCode: http.StatusConflict, wantKind: "duplicate_key"},
		{name: "empty name", body: map[string]any{"name": ""}, wantCode: http.StatusBadRequest, wantKind: "validation"},
		{name: "malformed body", body: `{"name":`, wantCode: http.StatusBadRequest, wantKind: "validation"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(r, "POST", "/v1/units", tc.body)
			assert.Equal(t, tc.wantCode, w.Code)
			resp := decode[errorResponse](t, w)
			assert.Equal(t, tc.wantKind, string(resp.Kind))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestGetUnitErrors(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "GET", "/v1/units/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := uuid.New()
	w = doRequest(r, "GET", "/v1/units/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"unit `+missing.String()+` not found","kind":"not_found"}`, w.Body.String())
}

func TestListUnits(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "GET", "/v1/units?page=0&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[listResponse[model.Unit]](t, w)
	require.Len(t, first.Items, 1)
	require.NotNil(t, first.Total)
	assert.Equal(t, int64(2), *first.Total)
	assert.Equal(t, 1, first.PageSize)

	w = doRequest(r, "GET", "/v1/units?page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[listResponse[model.Unit]](t, w)
	require.Len(t, second.Items, 1)
	assert.NotEqual(t, first.Items[0].ID, second.Items[0].ID)

	w = doRequest(r, "GET", "/v1/units?is_active=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[listResponse[model.Unit]](t, w).Items)

	for _, query := range []string{"page=x", "page_size=0x", "page_size=5000", "page=-1", "is_active=maybe"} {
		w = doRequest(r, "GET", "/v1/units?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestUpdateUnit(t *testing.T) {
	r, _ := setupRouter(t)
	path := "/v1/units/" + db.SeedHVACRooftopID.String()

	w := doRequest(r, "PUT", path, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	unit := decode[model.Unit](t, w)
	assert.False(t, unit.IsActive)
	assert.Equal(t, "HVAC-Rooftop-7", unit.Name)

	w = doRequest(r, "PUT", path, map[string]any{"name": "Assembly-Line-1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, "PUT", "/v1/units/"+uuid.NewString(), map[string]any{"name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUnitCascades(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "DELETE", "/v1/units/"+db.SeedAssemblyLineID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, "GET", "/v1/sensor-data/"+db.SeedPendingReadingID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, "DELETE", "/v1/units/"+db.SeedAssemblyLineID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnitStatistics(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(r, "GET", "/v1/units/"+db.SeedAssemblyLineID.String()+"/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[model.ReadingStatistics](t, w)
	assert.Equal(t, db.SeedAssemblyLineID, stats.UnitID)
	assert.Equal(t, int64(2), stats.TotalReadings)
	assert.Equal(t, int64(1), stats.ValidatedReadings)
	assert.Equal(t, "23.80", stats.AvgTemperature.Decimal.StringFixed(2))

	w = doRequest(r, "GET", "/v1/units/"+uuid.NewString()+"/statistics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
