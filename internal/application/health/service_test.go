package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestCollectHealth_WithNilRedis(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, pinger{})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)
	assert.True(t, mr.Exists("health:global:start_time"))

	require.NoError(t, rdb.Set(ctx, "health:global:req_total", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:req_errors", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_time_total", "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_count", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:last_request", `{"method":"GET","path":"/api/home","ip":"1.2.3.4"}`, 0).Err())

	result2 := CollectHealth(ctx, rdb, pinger{err: errors.New("down")})
	assert.Equal(t, "issue", result2.Status)
	assert.Equal(t, "error", result2.Dependencies["database"].Status)
	assert.Equal(t, 10, result2.Traffic.TotalRequests)
	assert.Equal(t, 8, result2.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result2.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result2.Traffic.AvgResponseTime)
	assert.Equal(t, "/api/home", result2.Traffic.LastRequest["path"])
}

func TestCollectHealth_Probes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	result := CollectHealth(context.Background(), nil, nil,
		Probe{Name: "frontend", URL: srv.URL},
		Probe{Name: "cdn", URL: "http://127.0.0.1:1"},
		Probe{Name: "skipped"},
	)
	assert.Equal(t, "reachable", result.Dependencies["frontend"].Status)
	assert.Equal(t, "unreachable", result.Dependencies["cdn"].Status)
	assert.NotContains(t, result.Dependencies, "skipped")
}

func TestRenderDashboardHTML(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil)
	result.Traffic.LastRequest = map[string]interface{}{"method": "GET", "path": "/api/popups?<script>", "ip": "::1"}
	html, err := RenderDashboardHTML(result)
	require.NoError(t, err)
	assert.Contains(t, html, "System Issues Detected")
	assert.Contains(t, html, "/health/json")
	assert.Contains(t, html, "database")
	assert.False(t, strings.Contains(html, "?<script>"))
}
