package router

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"popfitup-backend/internal/application/catalog"
	favsvc "popfitup-backend/internal/application/favorites"
	healthsvc "popfitup-backend/internal/application/health"
	homesvc "popfitup-backend/internal/application/home"
	reportsvc "popfitup-backend/internal/application/reports"
	"popfitup-backend/internal/config"
	"popfitup-backend/internal/infrastructure/database"
	authhandler "popfitup-backend/internal/interfaces/handlers/auth"
	favhandler "popfitup-backend/internal/interfaces/handlers/favorites"
	healthhandler "popfitup-backend/internal/interfaces/handlers/health"
	homehandler "popfitup-backend/internal/interfaces/handlers/home"
	popupshandler "popfitup-backend/internal/interfaces/handlers/popups"
	reporthandler "popfitup-backend/internal/interfaces/handlers/reports"
	"popfitup-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrNoDatabase = errors.New("DATABASE_URL or SQLITE_PATH must be set")

// Deps are the already-connected collaborators of the app.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Rdb    *redis.Client
	// Now overrides the clock of the catalog, home and report services.
	Now func() time.Time
}

// OpenDatabase opens Postgres, or SQLite when SQLITE_PATH is set.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	switch {
	case cfg.SQLitePath != "":
		return database.OpenSQLite(cfg.SQLitePath)
	case cfg.DatabaseURL != "":
		return database.Open(cfg.DatabaseURL)
	}
	return nil, ErrNoDatabase
}

// Connect opens the database and the Redis client named by cfg.
func Connect(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis url: %w", err)
	}
	return db, redis.NewClient(opt), nil
}

// CreateApp connects using cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, rdb, err := Connect(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewApp(Deps{Config: cfg, DB: db, Rdb: rdb}), db, rdb, nil
}

// NewApp wires services, handlers and routes.
func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.SessionStore(d.Rdb))
	app.Use(middleware.HealthMarker(d.Rdb))

	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	// Health
	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		hh.DB = sqlDB
	}
	if cfg.FrontendURL != "" {
		hh.Probes = []healthsvc.Probe{{Name: "frontend", URL: cfg.FrontendURL}}
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// Services
	catalogSvc := &catalog.Service{DB: d.DB, Now: d.Now}
	favSvc := &favsvc.Service{DB: d.DB}
	homeSvc := &homesvc.Service{
		Store:            catalogSvc,
		Rdb:              d.Rdb,
		CacheTTL:         cfg.HomeCacheTTL,
		LatestWindowDays: cfg.LatestWindowDays,
		BucketLimit:      cfg.HomeBucketLimit,
		Location:         cfg.Location(),
		Now:              d.Now,
	}
	reportSvc := &reportsvc.Service{
		DB:                  d.DB,
		AdminKey:            cfg.ReportAdminKey,
		AllowDeleteAnswered: cfg.ReportsOwnerDeleteAnswered,
		Now:                 d.Now,
	}

	// Auth
	ah := &authhandler.Handlers{
		Rdb:         d.Rdb,
		Config:      sessionCfg,
		LoginURL:    cfg.LoginURL,
		DevPassword: cfg.DevPassword,
	}
	app.Get("/auth/login", ah.Login)
	app.Post("/auth/logout", ah.Logout)
	if !cfg.IsProduction() {
		app.Post("/auth/dev-login", ah.DevLogin)
	}

	api := app.Group("/api")

	// Home
	hmh := &homehandler.Handlers{Service: homeSvc, Favorites: favSvc}
	api.Get("/home", hmh.Get)

	// Popups
	ph := &popupshandler.Handlers{Service: catalogSvc, Favorites: favSvc, PageSize: cfg.SearchPageSize}
	api.Get("/popups", ph.Search)
	api.Get("/popups/:id", ph.Get)
	api.Get("/popups/:id/similar", ph.Similar)
	api.Get("/popups/:id/nearby", ph.Nearby)

	// Users + favorites
	fh := &favhandler.Handlers{Service: favSvc}
	api.Get("/users/me", ah.Me)
	api.Get("/users/me/favorites", middleware.RequireAuth(), fh.ListMine)
	fg := api.Group("/favorites", middleware.RequireAuth())
	fg.Post("/", fh.Add)
	fg.Delete("/:popupId", fh.Remove)

	// Reports
	rh := &reporthandler.Handlers{Service: reportSvc, AllowDeviceToken: cfg.ReportsAllowDeviceToken}
	api.Post("/reports", rh.Submit)
	api.Get("/reports/mine", rh.ListMine)
	api.Get("/reports", rh.ListAll)
	api.Post("/reports/:id/answer", rh.Answer)
	api.Delete("/reports/:id", rh.Delete)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
