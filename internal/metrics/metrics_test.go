package metrics

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unit-telemetry-backend/internal/apperr"
)

func TestCollector_StoreOperations(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveOperation("units.get", "", 3*time.Millisecond)
	c.ObserveOperation("units.get", apperr.KindNotFound, time.Millisecond)
	c.ObserveOperation("units.get", apperr.KindNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.storeOperations.WithLabelValues("units.get", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.storeOperations.WithLabelValues("units.get", "not_found")))
}

func TestCollector_HTTPRequests(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveRequest("GET", "/v1/units/:id", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/v1/units/:id", "404")))
}

func TestCollector_PoolStats(t *testing.T) {
	c := NewCollector(func() sql.DBStats {
		return sql.DBStats{OpenConnections: 4, InUse: 3, Idle: 1, WaitCount: 7}
	})
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP telemetry_db_pool_in_use_connections Connections currently in use.
# TYPE telemetry_db_pool_in_use_connections gauge
telemetry_db_pool_in_use_connections 3
# HELP telemetry_db_pool_wait_count_total Connections waited for.
# TYPE telemetry_db_pool_wait_count_total counter
telemetry_db_pool_wait_count_total 7
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"telemetry_db_pool_in_use_connections", "telemetry_db_pool_wait_count_total")
	assert.NoError(t, err)
}
