package main

import (
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "storefront/internal/adapters/http_server"
	"storefront/internal/adapters/observability"
	"storefront/internal/domain"
	"storefront/internal/shared"
	"storefront/internal/storage/memory"
	mysqlrepo "storefront/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	var repo domain.ReviewRepository
	switch cfg.Storage {
	case "memory":
		log.Warn().Msg("using in-memory review storage; data is lost on restart")
		repo = memory.New()
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}

	srv := server.New()
	reg := observability.InitRegistry()
	observability.Serve(reg)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountBackend("/api", &server.BackendHandlers{Repo: repo})

	log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("review service listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
