package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localnerve/jam-build-admindb/internal/config"
	"github.com/localnerve/jam-build-admindb/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHealthCheck(t *testing.T) {
	authz := httptest.NewServer(http.NotFoundHandler())
	defer authz.Close()
	db := storetest.NewDB(t)
	ctx := context.Background()

	cfg := &config.Config{DBType: "sqlite", DBAppDatabase: ":memory:", AuthzURL: authz.URL}
	result := HealthCheck(ctx, cfg, db, 3, zap.NewNop())
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "ok", result.Authorizer)
	assert.Empty(t, result.Redis)
	assert.Equal(t, 3, result.Tables)

	core, logs := observer.New(zap.WarnLevel)
	cfg.AuthzURL = "http://127.0.0.1:1"
	cfg.RedisURL = "redis://127.0.0.1:1"
	result = HealthCheck(ctx, cfg, db, 3, zap.New(core))
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Authorizer)
	assert.Equal(t, "unreachable", result.Redis)
	assert.Contains(t, result.ErrorMessage, "Authorizer ping failed")
	assert.Equal(t, 2, logs.Len())
}
