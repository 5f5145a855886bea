package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"unit-telemetry-backend/config"
	"unit-telemetry-backend/internal/db"
	"unit-telemetry-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testRetry = store.RetryPolicy{Attempts: 3, Delay: time.Millisecond}

// setupRouter serves a seeded in-memory SQLite store.
func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.EnsureSchema(ctx, gdb))
	_, err = db.LoadSeedData(ctx, gdb)
	require.NoError(t, err)

	s := store.NewGormStore(gdb, store.Options{MaxConcurrent: 1, AcquireTimeout: time.Second})
	return NewRouter(s, RouterOptions{Retry: testRetry}), gdb
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
