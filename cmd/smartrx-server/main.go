package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kanishkhaa/smartrx/internal/backend"
	"github.com/kanishkhaa/smartrx/internal/config"
	"github.com/kanishkhaa/smartrx/internal/domain/appointment"
	"github.com/kanishkhaa/smartrx/internal/domain/assistant"
	"github.com/kanishkhaa/smartrx/internal/domain/locator"
	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/prescription"
	"github.com/kanishkhaa/smartrx/internal/domain/profile"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
	"github.com/kanishkhaa/smartrx/internal/domain/report"
	"github.com/kanishkhaa/smartrx/internal/domain/syncer"
	"github.com/kanishkhaa/smartrx/internal/platform/auth"
	"github.com/kanishkhaa/smartrx/internal/platform/clock"
	"github.com/kanishkhaa/smartrx/internal/platform/db"
	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
	"github.com/kanishkhaa/smartrx/internal/platform/middleware"
	"github.com/kanishkhaa/smartrx/internal/platform/notification"
	"github.com/kanishkhaa/smartrx/internal/platform/websocket"
	"github.com/kanishkhaa/smartrx/internal/platform/worker"
	"github.com/kanishkhaa/smartrx/migrations"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "smartrx-server",
		Short:         "SmartRx medication tracking API server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(analyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServer(cfg, newLogger(cfg.Env))
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(cmd.Context(), dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(cmd.Context(), dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status, appliedAt := "pending", ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func withMigrator(ctx context.Context, dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	var files fs.FS = migrations.Files
	if dir != "" {
		files = os.DirFS(dir)
	}
	return fn(ctx, db.NewMigrator(pool, files))
}

// stores holds one repository per collection.
type stores struct {
	medications   medication.Repository
	reminders     reminder.Repository
	prescriptions prescription.Repository
	profile       profile.Repository
	appointments  appointment.Repository
}

func memoryStores() stores {
	return stores{
		medications:   medication.NewMemoryRepo(),
		reminders:     reminder.NewMemoryRepo(),
		prescriptions: prescription.NewMemoryRepo(),
		profile:       profile.NewMemoryRepo(),
		appointments:  appointment.NewMemoryRepo(),
	}
}

func postgresStores(pool *pgxpool.Pool) stores {
	return stores{
		medications:   medication.NewRepoPG(pool),
		reminders:     reminder.NewRepoPG(pool),
		prescriptions: prescription.NewRepoPG(pool),
		profile:       profile.NewRepoPG(pool),
		appointments:  appointment.NewRepoPG(pool),
	}
}

// app is a fully wired server.
type app struct {
	echo    *echo.Echo
	workers *worker.Collection
	syncer  *syncer.Service
}

func buildApp(cfg *config.Config, st stores, pool *pgxpool.Pool, clk clock.Clock, logger zerolog.Logger) (*app, error) {
	apiHTTP, err := httpclient.New(cfg.BackendURL, cfg.HTTPTimeout())
	if err != nil {
		return nil, err
	}
	aiHTTP, err := httpclient.New(cfg.BackendURL, cfg.AITimeout())
	if err != nil {
		return nil, err
	}
	rxnormHTTP, err := httpclient.New(cfg.RxNormURL, cfg.HTTPTimeout())
	if err != nil {
		return nil, err
	}
	locatorHTTP, err := httpclient.New(cfg.LocatorURL, cfg.HTTPTimeout())
	if err != nil {
		return nil, err
	}
	be := backend.New(apiHTTP, aiHTTP)

	hub := websocket.NewHub(logger)
	notifier := notification.NewManager(hub, notification.NewTemplateEngine(), logger)

	enricher := medication.NewEnricher(medication.NewRxNormClient(rxnormHTTP), nil, logger)
	medSvc := medication.NewService(st.medications, enricher, be, logger)
	remSvc := reminder.NewService(st.reminders, be, clk, logger)
	rxSvc := prescription.NewService(st.prescriptions, be, enricher, medSvc, remSvc, clk, logger)
	profSvc := profile.NewService(st.profile, be, clk, logger)
	locSvc := locator.NewService(locator.NewClient(locatorHTTP), be, nil, logger)
	apptSvc := appointment.NewService(st.appointments, clk, logger)
	chatSvc := assistant.NewService(be, logger)
	syncSvc := syncer.NewService(be, syncer.Targets{
		Prescriptions: rxSvc,
		Medications:   medSvc,
		Reminders:     remSvc,
		Profile:       profSvc,
	}, logger)
	rxSvc.SetRefresher(syncSvc.RefreshErr)

	workers := &worker.Collection{}
	workers.Add(reminder.NewPoller(remSvc, notifier, cfg.ReminderPollInterval(), logger))
	workers.Add(appointment.NewPoller(apptSvc, notifier, cfg.ReminderPollInterval(), logger))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"storage": cfg.Storage,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Browsers cannot set headers on the upgrade request, so /ws is public.
	websocket.NewHandler(hub).RegisterRoutes(e.Group(""))

	apiV1 := e.Group("/api/v1")
	jwtCfg := auth.JWTConfig{SigningKey: []byte(cfg.AuthSigningKey), Issuer: cfg.AuthIssuer}
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		apiV1.Use(auth.JWTMiddleware(jwtCfg))
	}
	if cfg.RateLimitRPS > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimitRPS
		rl.BurstSize = cfg.RateLimitBurst
		apiV1.Use(middleware.RateLimit(rl))
	}
	// Uploads and AI calls wait on the slower client; leave room for one
	// backend round trip after it.
	apiV1.Use(middleware.RequestTimeout(cfg.AITimeout() + cfg.HTTPTimeout()))

	medication.NewHandler(medSvc).RegisterRoutes(apiV1)
	reminder.NewHandler(remSvc).RegisterRoutes(apiV1)
	report.NewHandler(medSvc, remSvc, clk).RegisterRoutes(apiV1)
	prescription.NewHandler(rxSvc).RegisterRoutes(apiV1)
	profile.NewHandler(profSvc).RegisterRoutes(apiV1)
	locator.NewHandler(locSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)
	assistant.NewHandler(chatSvc).RegisterRoutes(apiV1)
	syncer.NewHandler(syncSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notifier).RegisterRoutes(apiV1)

	return &app{echo: e, workers: workers, syncer: syncSvc}, nil
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	st := memoryStores()
	if cfg.Storage == config.StoragePostgres {
		var err error
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		if _, err := db.NewMigrator(pool, migrations.Files).Up(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		st = postgresStores(pool)
		logger.Info().Msg("connected to database")
	}

	a, err := buildApp(cfg, st, pool, clock.New(), logger)
	if err != nil {
		return err
	}

	a.workers.Start(ctx)
	defer a.workers.Stop()

	// Initial load from the backend; local data stays when it is unreachable.
	go a.syncer.Refresh(ctx)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("storage", cfg.Storage).Str("backend", cfg.BackendURL).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
