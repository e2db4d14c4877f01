package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPingService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	ctx := context.Background()

	assert.NoError(t, PingService(ctx, addr, time.Second))
	assert.NoError(t, PingAuthorizer(ctx, addr))

	srv.Close()
	assert.Error(t, PingService(ctx, addr, 200*time.Millisecond))
	assert.Error(t, PingService(ctx, "not a url", time.Second))
	assert.Error(t, PingRedis(ctx, "redis://"))
}
