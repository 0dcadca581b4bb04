// cmd/web/main.go
//
// hostcat – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load config (conf/.env → conf/hostcat.yaml → HOSTCAT_* env → vault).
//
//  2. Start the daily rotating logger (tees to console in a TTY).
//
//  3. Open the catalog database, ping with backoff, and create the schema
//     when database.migrate is on.
//
//  4. Open the optional GeoLite2 database.
//
//  5. Build the view engine, session manager, CSRF signer, and the two
//     rate-limit groups.
//
//  6. Serve until SIGINT or SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yanizio/hostcat/internal/catalog"
	"github.com/yanizio/hostcat/internal/config"
	"github.com/yanizio/hostcat/internal/database"
	"github.com/yanizio/hostcat/internal/form"
	"github.com/yanizio/hostcat/internal/logger"
	"github.com/yanizio/hostcat/internal/ratelimit"
	"github.com/yanizio/hostcat/internal/requestinfo"
	"github.com/yanizio/hostcat/internal/server"
	"github.com/yanizio/hostcat/internal/session"
	"github.com/yanizio/hostcat/internal/view"
	"github.com/yanizio/hostcat/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sugar, err := logger.New(cfg.Paths.Root, cfg.Log.Level, cfg.Log.Console || logger.IsTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer sugar.Sync()
	lg := sugar.Desugar()

	//
	// ── 1.  Catalog database ────────────────────────────────────────────
	//
	lg.Info("connecting to catalog DB", zap.String("driver", cfg.Database.Driver))
	db, err := database.OpenWithOptions(ctx, cfg.Database.Driver, cfg.Database.ResolvedDSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Retries:         database.DefaultOptions.Retries,
		RetryBackoff:    database.DefaultOptions.RetryBackoff,
	})
	if err != nil {
		lg.Fatal("connect catalog DB", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			lg.Fatal("migrate", zap.Error(err))
		}
	}
	store := catalog.NewSQLStore(db)

	//
	// ── 2.  GeoIP (optional) ────────────────────────────────────────────
	//
	opt := web.Options{ForceHTTPS: cfg.HTTP.ForceHTTPS, TrustProxy: cfg.HTTP.TrustProxy}
	geo, err := requestinfo.OpenGeo(cfg.GeoIP.DBPath)
	if err != nil {
		lg.Warn("geoip disabled", zap.String("path", cfg.GeoIP.DBPath), zap.Error(err))
	} else if geo != nil {
		defer geo.Close()
		opt.Geo = geo
	}

	//
	// ── 3.  Web layer ───────────────────────────────────────────────────
	//
	views, err := view.New()
	if err != nil {
		lg.Fatal("parse templates", zap.Error(err))
	}
	if cfg.Auth.PasswordHash == "" {
		lg.Warn("auth.password_hash not set; login disabled")
	}

	defaultRules, err := ratelimit.ParseRules(cfg.RateLimit.Default)
	if err != nil {
		lg.Fatal("rate_limit.default", zap.Error(err))
	}
	loginRules, err := ratelimit.ParseRules(cfg.RateLimit.Login)
	if err != nil {
		lg.Fatal("rate_limit.login", zap.Error(err))
	}
	limits := web.Limits{
		Default: ratelimit.New(defaultRules, cfg.RateLimit.Clients),
		Login:   ratelimit.New(loginRules, cfg.RateLimit.Clients),
	}

	srv := web.New(store, views,
		session.NewManager(cfg.Auth.SessionKey, cfg.Auth.SecureCookie),
		form.NewCSRF(cfg.Auth.CSRFKey, lg),
		cfg.Auth.PasswordHash, lg)

	//
	// ── 4.  Serve ───────────────────────────────────────────────────────
	//
	httpSrv := server.New(cfg.HTTP.ListenAddr, srv.Routes(limits, opt))
	if err := server.Run(ctx, httpSrv, lg); err != nil {
		lg.Fatal("http server", zap.Error(err))
	}
	lg.Info("bye")
}
