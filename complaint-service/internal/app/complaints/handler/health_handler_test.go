package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupHealthHandler(t *testing.T, optional map[string]Pinger) (*http.ServeMux, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	mux := http.NewServeMux()
	NewHealthCheckHandler(db, redisClient, optional).RegisterRoutes(mux)
	return mux, mock, mr
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck_Healthy(t *testing.T) {
	mux, mock, _ := setupHealthHandler(t, map[string]Pinger{
		"mongodb": PingFunc(func(ctx context.Context) error { return nil }),
	})
	mock.ExpectPing()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeHealth(t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["database"])
	assert.Equal(t, "healthy", resp.Checks["redis"])
	assert.Equal(t, "healthy", resp.Checks["mongodb"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_OptionalFailureIsWarning(t *testing.T) {
	mux, mock, _ := setupHealthHandler(t, map[string]Pinger{
		"mongodb": PingFunc(func(ctx context.Context) error { return errors.New("no reachable servers") }),
	})
	mock.ExpectPing()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeHealth(t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Contains(t, resp.Checks["mongodb"], "warning")
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	mux, mock, _ := setupHealthHandler(t, nil)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeHealth(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestReadiness_RedisDown(t *testing.T) {
	mux, mock, mr := setupHealthHandler(t, nil)
	mock.ExpectPing()
	mr.SetError("LOADING server is loading")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis not ready")
}

func TestLiveness(t *testing.T) {
	mux, _, _ := setupHealthHandler(t, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", w.Body.String())
}
