package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Lelo88/catalog-admin-golang/internal/config"
	"github.com/Lelo88/catalog-admin-golang/internal/db"
	"github.com/Lelo88/catalog-admin-golang/internal/httpx"
	"github.com/Lelo88/catalog-admin-golang/internal/messages"
)

type fakePool struct {
	pingErr     error
	pingCalled  bool
	closeCalled bool
	execSQL     []string
	execErr     error
}

func (pool *fakePool) Ping(ctx context.Context) error {
	pool.pingCalled = true
	return pool.pingErr
}

func (pool *fakePool) Close() {
	pool.closeCalled = true
}

func (pool *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pool.execSQL = append(pool.execSQL, sql)
	return pgconn.CommandTag{}, pool.execErr
}

func (pool *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (pool *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("database unavailable")
}

func (pool *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("database unavailable")
}

func testConfig() config.Config {
	return config.Config{
		Port:            "7070",
		DatabaseURL:     "postgres://",
		LogLevel:        "info",
		LogFormat:       "json",
		DefaultLanguage: "en",
	}
}

func testDeps(pool *fakePool, out io.Writer) appDeps {
	return appDeps{
		loadConfig: func() (config.Config, error) {
			return testConfig(), nil
		},
		loadDatabaseURL: func() (string, error) {
			return "postgres://", nil
		},
		newPool: func(ctx context.Context, url string) (appPool, error) {
			return pool, nil
		},
		listenAndServe: func(addr string, handler http.Handler) error {
			return nil
		},
		logOutput: out,
	}
}

func TestMain_FatalOnError(t *testing.T) {
	originalLoad := loadConfigFn
	originalNewPool := newPoolFn
	originalListen := listenAndServeFn
	originalOutput := logOutput
	originalArgs := cliArgs
	originalFatal := fatalf
	defer func() {
		loadConfigFn = originalLoad
		newPoolFn = originalNewPool
		listenAndServeFn = originalListen
		logOutput = originalOutput
		cliArgs = originalArgs
		fatalf = originalFatal
	}()

	expectedErr := errors.New("config failed")
	loadConfigFn = func() (config.Config, error) {
		return config.Config{}, expectedErr
	}
	newPoolFn = func(ctx context.Context, url string) (appPool, error) {
		return nil, errors.New("should not be called")
	}
	listenAndServeFn = func(addr string, handler http.Handler) error {
		return nil
	}
	logOutput = io.Discard
	cliArgs = func() []string { return []string{} }

	fatalCalled := false
	var fatalArg any
	fatalf = func(args ...any) {
		fatalCalled = true
		if len(args) > 0 {
			fatalArg = args[0]
		}
	}

	main()

	require.True(t, fatalCalled)
	require.Equal(t, expectedErr, fatalArg)
}

func TestRun_ConfigError(t *testing.T) {
	deps := testDeps(&fakePool{}, io.Discard)
	deps.loadConfig = func() (config.Config, error) {
		return config.Config{}, errors.New("load failed")
	}
	deps.newPool = func(ctx context.Context, url string) (appPool, error) {
		return nil, errors.New("should not be called")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "load failed")
}

func TestRun_UnknownLanguage(t *testing.T) {
	deps := testDeps(&fakePool{}, io.Discard)
	deps.loadConfig = func() (config.Config, error) {
		cfg := testConfig()
		cfg.DefaultLanguage = "de"
		return cfg, nil
	}

	err := run(context.Background(), deps)

	require.ErrorContains(t, err, `"de"`)
}

func TestRun_NewPoolError(t *testing.T) {
	deps := testDeps(&fakePool{}, io.Discard)
	deps.newPool = func(ctx context.Context, url string) (appPool, error) {
		return nil, errors.New("new pool failed")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "new pool failed")
}

func TestRun_ListenError(t *testing.T) {
	pool := &fakePool{}
	var logs bytes.Buffer
	deps := testDeps(pool, &logs)
	listenAddr := ""
	deps.listenAndServe = func(addr string, handler http.Handler) error {
		listenAddr = addr
		return errors.New("listen failed")
	}

	err := run(context.Background(), deps)

	require.EqualError(t, err, "listen failed")
	require.True(t, pool.closeCalled)
	require.Equal(t, ":7070", listenAddr)
	require.Contains(t, logs.String(), `"message":"listening"`)
}

func TestRun_Success(t *testing.T) {
	pool := &fakePool{}
	var logs bytes.Buffer

	err := run(context.Background(), testDeps(pool, &logs))

	require.NoError(t, err)
	require.True(t, pool.closeCalled)
	require.Contains(t, logs.String(), `"addr":":7070"`)
}

func TestRootCmd(t *testing.T) {
	t.Run("serve subcommand", func(t *testing.T) {
		pool := &fakePool{}
		cmd := newRootCmd(testDeps(pool, io.Discard))
		cmd.SetArgs([]string{"serve"})

		require.NoError(t, cmd.ExecuteContext(context.Background()))
		require.True(t, pool.closeCalled)
	})

	t.Run("unknown subcommand", func(t *testing.T) {
		cmd := newRootCmd(testDeps(&fakePool{}, io.Discard))
		cmd.SetArgs([]string{"nope"})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)

		require.Error(t, cmd.ExecuteContext(context.Background()))
	})

	t.Run("migrate applies schema", func(t *testing.T) {
		pool := &fakePool{}
		var logs bytes.Buffer
		cmd := newRootCmd(testDeps(pool, &logs))
		cmd.SetArgs([]string{"migrate"})

		require.NoError(t, cmd.ExecuteContext(context.Background()))
		require.Equal(t, []string{db.Schema()}, pool.execSQL)
		require.True(t, pool.closeCalled)
		require.Contains(t, logs.String(), "schema applied")
	})

	t.Run("migrate error", func(t *testing.T) {
		pool := &fakePool{execErr: errors.New("permission denied")}
		cmd := newRootCmd(testDeps(pool, io.Discard))
		cmd.SetArgs([]string{"migrate"})

		require.EqualError(t, cmd.ExecuteContext(context.Background()), "permission denied")
		require.True(t, pool.closeCalled)
	})

	t.Run("migrate without database url", func(t *testing.T) {
		deps := testDeps(&fakePool{}, io.Discard)
		deps.loadDatabaseURL = func() (string, error) {
			return "", errors.New("missing required env var: DATABASE_URL")
		}
		cmd := newRootCmd(deps)
		cmd.SetArgs([]string{"migrate"})

		require.ErrorContains(t, cmd.ExecuteContext(context.Background()), "DATABASE_URL")
	})

	t.Run("migrate print", func(t *testing.T) {
		pool := &fakePool{}
		var out bytes.Buffer
		cmd := newRootCmd(testDeps(pool, io.Discard))
		cmd.SetArgs([]string{"migrate", "--print"})
		cmd.SetOut(&out)

		require.NoError(t, cmd.ExecuteContext(context.Background()))
		require.Equal(t, db.Schema(), out.String())
		require.Empty(t, pool.execSQL)
	})
}

func newTestRouter(t *testing.T, pool *fakePool) http.Handler {
	t.Helper()

	catalog, err := messages.Load("en")
	require.NoError(t, err)
	return buildRouter(pool, zerolog.Nop(), catalog)
}

func TestBuildRouter_HealthReady(t *testing.T) {
	pool := &fakePool{}
	router := newTestRouter(t, pool)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := asMap(t, resp.Data)
	require.Equal(t, "ok", data["status"])

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	data = asMap(t, resp.Data)
	require.Equal(t, "ready", data["status"])
	require.True(t, pool.pingCalled)
}

func TestBuildRouter_RequestID(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(httpx.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, "req-123", rec.Header().Get(httpx.RequestIDHeader))
	require.Equal(t, "req-123", decodeResponse(t, rec).Meta.RequestID)
}

func TestBuildRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	require.Equal(t, "not_found", resp.Error.Code)
}

func TestBuildRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	require.Equal(t, "method_not_allowed", resp.Error.Code)
}

func TestBuildRouter_Products(t *testing.T) {
	t.Run("list hides database errors", func(t *testing.T) {
		router := newTestRouter(t, &fakePool{})

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "database unavailable")
	})

	t.Run("validation errors are localized and counted", func(t *testing.T) {
		router := newTestRouter(t, &fakePool{})

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":" ","stock":"1","price":"1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeResponse(t, rec)
		require.Equal(t, "validation_failed", resp.Error.Code)
		require.Equal(t, []httpx.FieldDetail{
			{Field: "name", Code: "MissingName", Message: "Veuillez saisir un nom"},
		}, resp.Error.Details)

		req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `catalog_products_saves_total{outcome="rejected"} 1`)
	})
}

func TestBuildRouter_Docs(t *testing.T) {
	router := newTestRouter(t, &fakePool{})

	req := httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/products/{id}")
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) httpx.Response {
	t.Helper()

	var response httpx.Response
	decoder := json.NewDecoder(bytes.NewReader(recorder.Body.Bytes()))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&response))
	return response
}

func asMap(t *testing.T, value any) map[string]any {
	t.Helper()

	out, ok := value.(map[string]any)
	require.True(t, ok, "expected map, got %T", value)
	return out
}
