package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/jmoiron/sqlx"

	"go-directory-app/internal/aggregator"
	"go-directory-app/internal/auth"
	"go-directory-app/internal/cache"
	"go-directory-app/internal/cms"
	"go-directory-app/internal/config"
	"go-directory-app/internal/data"
	"go-directory-app/internal/handler"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/pagegen"
	"go-directory-app/internal/ratelimit"
	"go-directory-app/internal/service"
	"go-directory-app/internal/view"
	"go-directory-app/web"
)

const cachePurgeInterval = 10 * time.Minute

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure DIRECTORY_SESSION_SECRET_KEY environment variable.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB, cfg.DB.Migrations); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Session Management Setup ---
	sessionManager := scs.New()
	sessionManager.Store = sessionStore(cfg.DB.Driver, db, log)
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	var authenticator *auth.Authenticator
	if cfg.OIDC.IssuerURL != "" {
		authenticator, err = auth.NewAuthenticator(ctx, &cfg.OIDC)
		if err != nil {
			log.Fatal(err, "Failed to initialize authenticator")
		}
	} else {
		log.Warn("No OIDC issuer configured; browser sign-in is disabled.")
	}
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, cfg.Admin.Subjects, log)

	// A nil *auth.TokenVerifier must not reach the middleware as a non-nil interface.
	var tokens middleware.TokenVerifier
	if v := auth.NewTokenVerifier(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer); v != nil {
		tokens = v
	} else {
		log.Warn("No admin JWT secret configured; bearer tokens are rejected.")
	}
	log.Info("Auth components initialized and policies seeded.")

	// --- View Template Initialization ---
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	renderCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer renderCache.Close()
	go purgeCache(ctx, renderCache, log)

	// --- Page Generator ---
	pages, err := pagegen.NewOnDisk(cfg.Pages.Root, renderCache, log)
	if err != nil {
		log.Fatal(err, "Failed to initialize page generator")
	}

	// --- Listing Sources ---
	listingRepository := data.NewSQLListingRepository(db)
	sources := aggregator.Sources{Relational: aggregator.RelationalSource(listingRepository)}
	if sources.Static, err = aggregator.StaticSource(); err != nil {
		log.Fatal(err, "Failed to load bundled listings")
	}

	var cmsWriter service.CMSWriter
	if cfg.CMS.Enabled {
		client, err := cms.Connect(ctx, cfg.CMS)
		if err != nil {
			log.Error(err, "CMS unavailable; continuing without it")
		} else {
			defer client.Disconnect(context.Background())
			store := cms.NewListingStore(client.Database(cfg.CMS.Database), cfg.CMS.Collection)
			if err := store.EnsureIndexes(ctx); err != nil {
				log.Error(err, "Failed to create CMS indexes")
			}
			sources.CMS = aggregator.CMSSource(store)
			cmsWriter = store
			log.Info("CMS connection successful.")
		}
	}
	listings := aggregator.New(sources, log)

	// --- Review Rate Limiting ---
	var limiterStore ratelimit.Store = renderCache
	if cfg.RateLimit.Backend == "dynamodb" {
		client, err := ratelimit.NewDynamoClient(ctx)
		if err != nil {
			log.Fatal(err, "Failed to initialize DynamoDB client")
		}
		limiterStore = ratelimit.NewDynamoStore(client, cfg.RateLimit.DynamoDBTable)
		log.Info("Review rate limits stored in DynamoDB table " + cfg.RateLimit.DynamoDBTable)
	}
	limiter := ratelimit.New(limiterStore, cfg.RateLimit.MaxPerWindow, cfg.RateLimit.Window)

	// --- Dependency Injection and Handler Initialization ---
	reviewService := service.NewReviewService(data.NewSQLReviewRepository(db), limiter, log)
	importService := service.NewImportService(cmsWriter, listingRepository, renderCache, log)

	handlers := handler.Handlers{
		Admin:      handler.NewAdminHandler(pages, importService, log),
		Reviews:    handler.NewReviewHandler(reviewService),
		Businesses: handler.NewBusinessHandler(pages, listings, renderCache, cfg.Cache.RenderTTL, log),
		Listings:   handler.NewListingHandler(listings, viewService, log),
		SEO:        handler.NewSeoHandler(pages, renderCache, cfg.Cache.RenderTTL, cfg.Server.BaseURL, log),
		Auth:       handler.NewAuthHandler(authenticator, sessionManager, log),
	}
	authzMiddleware := middleware.Authorizer(enforcer, sessionManager, tokens, log)

	// --- Router Setup ---
	router := handler.NewRouter(handlers, sessionManager, authzMiddleware, middleware.JSONError(log), middleware.Error(log, viewService))

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	<-ctx.Done()
	log.Warn("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// sessionStore picks the scs store matching the database driver. The pgx
// schema has no sessions table, so Postgres deployments keep sessions in memory.
func sessionStore(driver string, db *sqlx.DB, log logger.Logger) scs.Store {
	switch driver {
	case "sqlite3":
		return sqlite3store.New(db.DB)
	case "pgx":
		log.Warn("Sessions are held in memory and do not survive a restart.")
		return memstore.New()
	default:
		return mysqlstore.New(db.DB)
	}
}

// purgeCache periodically drops expired cache rows until ctx is done.
func purgeCache(ctx context.Context, c *cache.Cache, log logger.Logger) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Purge(ctx)
			if err != nil {
				log.Error(err, "cache purge failed")
				continue
			}
			if n > 0 {
				log.Debug(fmt.Sprintf("purged %d expired cache entries", n))
			}
		}
	}
}
