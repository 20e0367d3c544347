package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"popfitup-backend/internal/config"
	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/infrastructure/database"
	"popfitup-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, time.November, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func setupRouterTest(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	cfg := &config.Config{
		Env:              "test",
		ReportAdminKey:   "admin-secret",
		HealthAdminKey:   "health-secret",
		LoginURL:         "https://login.popfitup.kr/naver",
		DevPassword:      "dev",
		LatestWindowDays: 14,
		HomeBucketLimit:  12,
		HomeCacheTTL:     time.Minute,
		SearchPageSize:   15,
		Timezone:         "UTC",
	}
	for _, m := range mutate {
		m(cfg)
	}
	app := NewApp(Deps{Config: cfg, DB: db, Rdb: rdb, Now: func() time.Time { return fixedNow }})
	return &testEnv{app: app, db: db, mr: mr}
}

func (e *testEnv) login(t *testing.T, userID string) string {
	sid := "sid-" + userID
	b, _ := json.Marshal(map[string]interface{}{"user": map[string]interface{}{"user_id": userID, "nickname": "n" + userID}})
	require.NoError(t, e.mr.Set(middleware.SessionRedisPrefix+sid, string(b)))
	return middleware.SessionCookieName + "=s:" + sid
}

func (e *testEnv) seed(t *testing.T, name string, cat domain.Category, start, end *datatypes.Date) *domain.Listing {
	l := &domain.Listing{
		Name:       name,
		Address:    "서울시 성동구 성수동",
		Categories: []domain.ListingCategory{{Code: cat}},
		StartDate:  start,
		EndDate:    end,
		UpdatedAt:  fixedNow.Add(-time.Hour),
	}
	require.NoError(t, e.db.Create(l).Error)
	return l
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
		Details    struct {
			Code string `json:"code"`
		} `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, cookie string, body interface{}) (*http.Response, envelope) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func TestHome_InitialAndMonth(t *testing.T) {
	e := setupRouterTest(t)
	e.seed(t, "nov", domain.CategoryFood, domain.NewDate(2025, 11, 1), domain.NewDate(2025, 11, 30))
	e.seed(t, "dec", domain.CategoryFood, domain.NewDate(2025, 12, 1), domain.NewDate(2025, 12, 31))

	resp, env := e.do(t, "GET", "/api/home", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var home struct {
		Month   string `json:"month"`
		Latest  []struct{ Name string } `json:"latest"`
		Monthly []struct {
			Name        string `json:"name"`
			IsFavorited *bool  `json:"is_favorited"`
		} `json:"monthly"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &home))
	assert.Equal(t, "2025-11", home.Month)
	assert.Len(t, home.Latest, 2)
	require.Len(t, home.Monthly, 1)
	assert.Equal(t, "nov", home.Monthly[0].Name)
	assert.Nil(t, home.Monthly[0].IsFavorited)

	resp, env = e.do(t, "GET", "/api/home?month=2025-12", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &home))
	assert.Equal(t, "2025-12", home.Month)
	require.Len(t, home.Monthly, 1)
	assert.Equal(t, "dec", home.Monthly[0].Name)

	resp, env = e.do(t, "GET", "/api/home?month=december", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Details.Code)
}

func TestPopups_SearchAndDetail(t *testing.T) {
	e := setupRouterTest(t)
	for i := 0; i < 20; i++ {
		e.seed(t, fmt.Sprintf("f%02d", i), domain.CategoryFashion, nil, nil)
	}
	first := e.seed(t, "food", domain.CategoryFood, nil, nil)

	resp, env := e.do(t, "GET", "/api/popups?category=fashion&page=2", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page struct {
		Items    []json.RawMessage `json:"items"`
		Total    int64             `json:"total"`
		Page     int               `json:"page"`
		PageSize int               `json:"pageSize"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(20), page.Total)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 15, page.PageSize)

	resp, env = e.do(t, "GET", fmt.Sprintf("/api/popups/%d", first.ID), "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "food", item["name"])
	assert.Equal(t, "서울시 성동구", item["region"])

	resp, env = e.do(t, "GET", "/api/popups/99999", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Error.Details.Code)

	resp, _ = e.do(t, "GET", "/api/popups/abc", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFavorites_Flow(t *testing.T) {
	e := setupRouterTest(t)
	l := e.seed(t, "cafe", domain.CategoryFood, nil, nil)

	resp, env := e.do(t, "POST", "/api/favorites", "", map[string]interface{}{"popupId": l.ID})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "LOGIN_REQUIRED", env.Error.Details.Code)

	cookie := e.login(t, "42")
	resp, env = e.do(t, "POST", "/api/favorites", cookie, map[string]interface{}{"popupId": l.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var fav struct {
		Favorited     bool  `json:"favorited"`
		FavoriteCount int64 `json:"favoriteCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &fav))
	assert.True(t, fav.Favorited)
	assert.Equal(t, int64(1), fav.FavoriteCount)

	resp, env = e.do(t, "GET", fmt.Sprintf("/api/popups/%d", l.ID), cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, true, item["is_favorited"])

	resp, env = e.do(t, "GET", "/api/users/me/favorites", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)

	resp, _ = e.do(t, "DELETE", fmt.Sprintf("/api/favorites/%d", l.ID), cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = e.do(t, "POST", "/api/favorites", cookie, map[string]interface{}{"popupId": 777})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Error.Details.Code)
}

func TestReports_Flow(t *testing.T) {
	e := setupRouterTest(t)
	cookie := e.login(t, "7")
	body := map[string]string{"name": "A", "address": "B", "description": "C"}

	resp, env := e.do(t, "POST", "/api/reports", "", body)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "LOGIN_REQUIRED", env.Error.Details.Code)

	var ids []uint64
	for i := 0; i < 3; i++ {
		resp, env = e.do(t, "POST", "/api/reports", cookie, body)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		var r struct {
			ID uint64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &r))
		ids = append(ids, r.ID)
	}
	resp, env = e.do(t, "POST", "/api/reports", cookie, body)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "QUOTA_EXCEEDED", env.Error.Details.Code)

	resp, env = e.do(t, "POST", "/api/reports", cookie, map[string]string{"name": "A"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Details.Code)

	resp, env = e.do(t, "GET", "/api/reports?key=wrong", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Details.Code)

	resp, _ = e.do(t, "GET", "/api/reports?key=admin-secret", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	answerPath := fmt.Sprintf("/api/reports/%d/answer?key=admin-secret", ids[0])
	resp, _ = e.do(t, "POST", answerPath, "", map[string]string{"answer": "thanks"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, env = e.do(t, "POST", answerPath, "", map[string]string{"answer": "again"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_ANSWERED", env.Error.Details.Code)

	resp, env = e.do(t, "GET", "/api/reports/mine", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var mine []struct {
		ID     uint64  `json:"id"`
		Answer *string `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 3)

	resp, env = e.do(t, "DELETE", fmt.Sprintf("/api/reports/%d", ids[0]), cookie, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ANSWER_LOCKED", env.Error.Details.Code)

	other := e.login(t, "8")
	resp, env = e.do(t, "DELETE", fmt.Sprintf("/api/reports/%d", ids[1]), other, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", env.Error.Details.Code)

	resp, _ = e.do(t, "DELETE", fmt.Sprintf("/api/reports/%d", ids[1]), cookie, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, "DELETE", fmt.Sprintf("/api/reports/%d?key=admin-secret", ids[0]), "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReports_DeviceToken(t *testing.T) {
	e := setupRouterTest(t, func(c *config.Config) { c.ReportsAllowDeviceToken = true })
	req := httptest.NewRequest("POST", "/api/reports", bytes.NewReader([]byte(`{"name":"A","address":"B","description":"C"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ClientIDHeader, "6f1c4f1e-52a6-4c55-9d1e-1c4b7a5e2a10")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var count int64
	require.NoError(t, e.db.Model(&domain.Report{}).Where("submitter = ?", "device:6f1c4f1e-52a6-4c55-9d1e-1c4b7a5e2a10").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAuth_LoginMeLogout(t *testing.T) {
	e := setupRouterTest(t)

	resp, _ := e.do(t, "GET", "/auth/login?returnTo=/reports", "", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://login.popfitup.kr/naver?returnTo=%2Freports", resp.Header.Get("Location"))

	resp, env := e.do(t, "GET", "/api/users/me", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authenticated":false}`, string(env.Data))

	req := httptest.NewRequest("POST", "/auth/dev-login", bytes.NewReader([]byte(`{"user_id":"99","nickname":"tester"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("dev-password", "dev")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c.Name + "=" + c.Value
		}
	}
	require.NotEmpty(t, cookie)

	resp, env = e.do(t, "GET", "/api/users/me", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, true, me["authenticated"])
	assert.Equal(t, "user:99", me["identity"])

	resp, _ = e.do(t, "POST", "/auth/logout", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = e.do(t, "GET", "/api/users/me", cookie, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authenticated":false}`, string(env.Data))
}

func TestHealth_Endpoints(t *testing.T) {
	e := setupRouterTest(t)
	e.do(t, "GET", "/api/home", "", nil)

	resp, err := e.app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "popfitup-api", out["service"])
	assert.Equal(t, "ok", out["status"])

	resp, _ = e.do(t, "GET", "/reset?key=nope", "", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = e.do(t, "GET", "/reset?key=health-secret", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, e.mr.Exists(middleware.KeyReqTotal))

	resp, err = e.app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}
