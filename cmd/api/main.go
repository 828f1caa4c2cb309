package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Lelo88/catalog-admin-golang/internal/config"
	"github.com/Lelo88/catalog-admin-golang/internal/db"
	"github.com/Lelo88/catalog-admin-golang/internal/docs"
	"github.com/Lelo88/catalog-admin-golang/internal/health"
	"github.com/Lelo88/catalog-admin-golang/internal/httpx"
	"github.com/Lelo88/catalog-admin-golang/internal/logging"
	"github.com/Lelo88/catalog-admin-golang/internal/messages"
	"github.com/Lelo88/catalog-admin-golang/internal/metrics"
	"github.com/Lelo88/catalog-admin-golang/internal/products"
)

// appPool es lo que la app usa del pool. *pgxpool.Pool lo cumple.
type appPool interface {
	products.Database
	Ping(ctx context.Context) error
	Close()
}

// appDeps permite reemplazar IO externo (env, DB, red) en tests.
type appDeps struct {
	loadConfig      func() (config.Config, error)
	loadDatabaseURL func() (string, error)
	newPool         func(ctx context.Context, url string) (appPool, error)
	listenAndServe  func(addr string, handler http.Handler) error
	logOutput       io.Writer
}

var (
	loadConfigFn                = config.Load
	loadDatabaseURLFn           = config.LoadDatabaseURL
	newPoolFn                   = openPool
	listenAndServeFn            = http.ListenAndServe
	logOutput         io.Writer = os.Stdout
	cliArgs                     = func() []string { return os.Args[1:] }
	fatalf                      = fatal
)

func main() {
	cmd := newRootCmd(defaultDeps())
	cmd.SetArgs(cliArgs())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fatalf(err)
	}
}

func openPool(ctx context.Context, url string) (appPool, error) {
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func fatal(args ...any) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Fatal().Msg(fmt.Sprint(args...))
}

func defaultDeps() appDeps {
	return appDeps{
		loadConfig:      loadConfigFn,
		loadDatabaseURL: loadDatabaseURLFn,
		newPool:         newPoolFn,
		listenAndServe:  listenAndServeFn,
		logOutput:       logOutput,
	}
}

// newRootCmd arma la CLI. Sin subcomando levanta el servidor.
func newRootCmd(deps appDeps) *cobra.Command {
	serve := func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), deps)
	}

	root := &cobra.Command{
		Use:           "catalog-admin",
		Short:         "Catalog administration API",
		Args:          cobra.NoArgs,
		RunE:          serve,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	root.AddCommand(newMigrateCmd(deps))
	return root
}

// run levanta el servidor HTTP. Devuelve error en vez de cortar el proceso
// para poder testear el arranque.
func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(deps.logOutput, cfg.LogLevel, cfg.LogFormat)

	catalog, err := messages.Load(cfg.DefaultLanguage)
	if err != nil {
		return err
	}

	pool, err := deps.newPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	router := buildRouter(pool, logger, catalog)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Msg("listening")
	return deps.listenAndServe(addr, router)
}

func buildRouter(pool appPool, logger zerolog.Logger, localizer products.Localizer) http.Handler {
	router := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	router.Use(httpx.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(10 * time.Second))

	// Errores de routing se manejan a nivel router.
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	healthHandler := health.New(pool)
	router.Get("/health", healthHandler.Health)
	router.Get("/ready", healthHandler.Ready)

	catalogMetrics := metrics.New()
	router.Handle("/metrics", catalogMetrics.Handler())

	service := products.NewService(
		products.NewRepository(pool),
		products.WithLogger(logger),
		products.WithObserver(catalogMetrics),
	)
	products.RegisterRoutes(router, products.NewHandler(service, localizer))

	docs.RegisterRoutes(router)

	return router
}
