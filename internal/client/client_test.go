package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"popfitup-backend/internal/config"
	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/infrastructure/database"
	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/interfaces/router"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestSearch_EncodesFilterAndDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/popups", r.URL.Path)
		assert.Equal(t, "seoul", r.URL.Query().Get("region"))
		assert.Equal(t, "", r.URL.Query().Get("category"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data": dto.SearchResponse{
				Items: []dto.PopupItem{{ID: 9, Name: "pop"}},
				Total: 16, Page: 2, PageSize: 15,
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Search(context.Background(), domain.SearchFilter{Location: "seoul", Category: "all"}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(16), res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, uint64(9), res.Items[0].ID)
}

func TestErrorCodesMapToSentinels(t *testing.T) {
	cases := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusNotFound, "NOT_FOUND", ErrNotFound},
		{http.StatusTooManyRequests, "QUOTA_EXCEEDED", ErrQuotaExceeded},
		{http.StatusConflict, "ALREADY_ANSWERED", ErrAlreadyAnswered},
		{http.StatusConflict, "ANSWER_LOCKED", ErrAnswerLocked},
		{http.StatusUnauthorized, "LOGIN_REQUIRED", ErrLoginRequired},
		{http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized},
		{http.StatusInternalServerError, "INTERNAL", ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tc.status, map[string]interface{}{
					"status": "error",
					"error": map[string]interface{}{
						"message":    "boom",
						"statusCode": tc.status,
						"details":    map[string]string{"code": tc.code},
					},
				})
			}))
			defer srv.Close()

			_, err := New(srv.URL).Popup(context.Background(), 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, "boom", apiErr.Message)
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Home(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestSendsCookieAndClientID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("popfitup.sid")
		require.NoError(t, err)
		assert.Equal(t, "s:abc", ck.Value)
		assert.Equal(t, "dev-1", r.Header.Get("X-Client-Id"))
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"data":   dto.MeResponse{Authenticated: true, UserID: "1"},
		})
	}))
	defer srv.Close()

	me, err := New(srv.URL, WithSessionCookie("s:abc"), WithClientID("dev-1")).Me(context.Background())
	require.NoError(t, err)
	assert.True(t, me.Authenticated)
}

func startServer(t *testing.T) string {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Env:                     "test",
		ReportAdminKey:          "admin-secret",
		LatestWindowDays:        14,
		HomeBucketLimit:         12,
		HomeCacheTTL:            time.Minute,
		SearchPageSize:          15,
		Timezone:                "UTC",
		ReportsAllowDeviceToken: true,
	}
	app := router.NewApp(router.Deps{Config: cfg, DB: db, Rdb: rdb})
	srv := httptest.NewServer(router.Handler(app))
	t.Cleanup(func() {
		srv.Close()
		rdb.Close()
		mr.Close()
	})
	return srv.URL
}

func TestReportsAgainstServer(t *testing.T) {
	base := startServer(t)
	ctx := context.Background()
	c := New(base, WithClientID(uuid.NewString()))

	var ids []uint64
	for _, name := range []string{"A", "B", "C"} {
		r, err := c.SubmitReport(ctx, dto.SubmitReportRequest{Name: name, Address: "addr", Description: "desc"})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := c.SubmitReport(ctx, dto.SubmitReportRequest{Name: "D", Address: "addr", Description: "desc"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	mine, err := c.MyReports(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	_, err = c.AllReports(ctx, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	answered, err := c.AnswerReport(ctx, ids[1], "admin-secret", "thanks")
	require.NoError(t, err)
	require.NotNil(t, answered.Answer)
	assert.Equal(t, "thanks", *answered.Answer)

	_, err = c.AnswerReport(ctx, ids[1], "admin-secret", "again")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	require.NoError(t, c.DeleteMyReport(ctx, ids[0]))
	_, err = c.SubmitReport(ctx, dto.SubmitReportRequest{Name: "D", Address: "addr", Description: "desc"})
	assert.NoError(t, err)

	_, err = New(base).AddFavorite(ctx, 1)
	assert.ErrorIs(t, err, ErrLoginRequired)
}
