package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/handlers"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
	"github.com/ternarybob/golfstats/internal/scrapers"
	"github.com/ternarybob/golfstats/internal/services/auth"
	"github.com/ternarybob/golfstats/internal/services/etl"
	"github.com/ternarybob/golfstats/internal/services/events"
	"github.com/ternarybob/golfstats/internal/services/mailer"
	"github.com/ternarybob/golfstats/internal/services/pdf"
	"github.com/ternarybob/golfstats/internal/services/report"
	"github.com/ternarybob/golfstats/internal/services/scheduler"
	"github.com/ternarybob/golfstats/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage
	StorageManager interfaces.StorageManager
	SnapshotStore  interfaces.SnapshotStore

	// Scraping
	BrowserPool *scrapers.BrowserPool
	Scrapers    []interfaces.Scraper

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Authentication (local, Supabase JWT, Google OAuth)
	AuthService   *auth.Service
	GoogleService interfaces.GoogleAuthService

	// Pipeline services
	ETLService    interfaces.ETLService
	PDFService    interfaces.PDFService
	MailerService interfaces.MailerService
	ReportService interfaces.ReportService

	// HTTP handlers
	AuthMiddleware     *handlers.AuthMiddleware
	UIHandler          *handlers.UIHandler
	HealthHandler      *handlers.HealthHandler
	WSHandler          *handlers.WebSocketHandler
	AuthHandler        *handlers.AuthHandler
	GoogleHandler      *handlers.GoogleHandler
	UserHandler        *handlers.UserHandler
	RoundHandler       *handlers.RoundHandler
	ClubHandler        *handlers.ClubHandler
	PreferencesHandler *handlers.PreferencesHandler
	ETLHandler         *handlers.ETLHandler
	ReportHandler      *handlers.ReportHandler
	SnapshotHandler    *handlers.SnapshotHandler
}

// New creates a fully wired application from the given config
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Event service is needed before handlers so the WebSocket handler
	// can subscribe its broadcaster during construction
	app.EventService = events.NewService(app.Logger)
	if err := app.subscribeEventLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	if err := app.initScrapers(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize scrapers: %w", err)
	}

	if err := app.initServices(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.initScheduler(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	logger.Info().
		Int("scrapers", len(app.Scrapers)).
		Bool("google_oauth", app.GoogleService.Enabled()).
		Bool("mailer", app.MailerService.Enabled()).
		Bool("scheduler", app.Config.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the relational store and the snapshot spool
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.ctx, a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "postgres").
		Msg("Storage layer initialized")

	snapshots, err := storage.NewSnapshotStore(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to open snapshot spool: %w", err)
	}
	a.SnapshotStore = snapshots
	a.Logger.Debug().
		Str("path", a.Config.Scrapers.DataDir).
		Msg("Snapshot spool opened")

	return nil
}

// subscribeEventLogger attaches the debug logger to every event type
func (a *App) subscribeEventLogger() error {
	return events.SubscribeLoggerToAllEvents(a.EventService, a.Logger)
}

// initScrapers creates the shared browser pool and one scraper per vendor.
// The pool launches Chrome instances lazily on first use.
func (a *App) initScrapers() error {
	a.BrowserPool = scrapers.NewBrowserPool(a.Logger, &a.Config.Scrapers)

	trackman, err := scrapers.NewTrackmanScraper(a.BrowserPool, a.SnapshotStore, &a.Config.Scrapers, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create trackman scraper: %w", err)
	}
	arccos, err := scrapers.NewArccosScraper(a.BrowserPool, a.SnapshotStore, &a.Config.Scrapers, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create arccos scraper: %w", err)
	}
	skytrak, err := scrapers.NewSkyTrakScraper(a.BrowserPool, a.SnapshotStore, &a.Config.Scrapers, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create skytrak scraper: %w", err)
	}

	a.Scrapers = []interfaces.Scraper{trackman, arccos, skytrak}
	return nil
}

// initServices initializes business services in dependency order
func (a *App) initServices() error {
	a.MailerService = mailer.NewService(a.Config.SMTP, a.Logger)
	if !a.MailerService.Enabled() {
		a.Logger.Info().Msg("SMTP not configured, outbound mail disabled")
	}

	a.AuthService = auth.NewService(
		a.StorageManager.UserStorage(),
		a.MailerService,
		a.Config,
		a.Logger,
	)

	a.GoogleService = auth.NewGoogleService(
		a.StorageManager.UserStorage(),
		a.AuthService,
		&a.Config.Google,
		a.Logger,
	)

	a.ETLService = etl.NewRunner(
		a.Scrapers,
		a.StorageManager,
		a.EventService,
		a.Config,
		a.Logger,
	)

	a.PDFService = pdf.NewService(a.Logger)

	a.SchedulerService = scheduler.NewService(a.Logger)

	a.ReportService = report.NewService(
		a.StorageManager,
		a.PDFService,
		a.MailerService,
		a.EventService,
		a.Config,
		a.Logger,
	)

	return nil
}

// initHandlers wires HTTP handlers to their services
func (a *App) initHandlers() {
	a.AuthMiddleware = handlers.NewAuthMiddleware(a.AuthService, a.Logger)
	a.UIHandler = handlers.NewUIHandler()
	a.HealthHandler = handlers.NewHealthHandler(a.StorageManager, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger)
	a.AuthHandler = handlers.NewAuthHandler(a.AuthService, a.Logger)
	a.GoogleHandler = handlers.NewGoogleHandler(a.GoogleService, a.Logger)
	a.UserHandler = handlers.NewUserHandler(a.StorageManager, a.Logger)
	a.RoundHandler = handlers.NewRoundHandler(a.StorageManager, a.Logger)
	a.ClubHandler = handlers.NewClubHandler(a.StorageManager, a.Logger)
	a.PreferencesHandler = handlers.NewPreferencesHandler(a.StorageManager, a.Logger)
	a.ETLHandler = handlers.NewETLHandler(a.ETLService, a.SchedulerService, a.StorageManager, a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.ReportService, a.Logger)
	a.SnapshotHandler = handlers.NewSnapshotHandler(a.SnapshotStore, a.Logger)
}

// initScheduler registers cron jobs and starts the scheduler when enabled.
// Registered jobs stay visible (and manually triggerable) even when their
// config flag is off; the flag only controls registration here.
func (a *App) initScheduler() error {
	if a.Config.Scheduler.DailyETL {
		if err := a.SchedulerService.RegisterJob(
			"daily-etl",
			a.Config.ETL.DailySchedule,
			"Scrape all vendor dashboards for every active user",
			func() error {
				_, err := a.ETLService.RunAll(a.ctx, models.TriggerScheduled)
				return err
			},
		); err != nil {
			return fmt.Errorf("failed to register daily-etl job: %w", err)
		}
	}

	if a.Config.Scheduler.WeeklyPDF {
		if err := a.SchedulerService.RegisterJob(
			"weekly-report",
			a.Config.ETL.WeeklySchedule,
			"Generate and email weekly PDF reports",
			func() error {
				_, err := a.ReportService.GenerateWeekly(a.ctx)
				return err
			},
		); err != nil {
			return fmt.Errorf("failed to register weekly-report job: %w", err)
		}
	}

	if a.Config.Scheduler.SpoolGC {
		if err := a.SchedulerService.RegisterJob(
			"spool-gc",
			"0 3 * * *",
			"Expire scrape snapshots past their retention window",
			func() error {
				removed, err := a.SnapshotStore.Sweep(a.Config.Scrapers.SnapshotTTL)
				if err != nil {
					return err
				}
				a.Logger.Info().Int("removed", removed).Msg("Snapshot spool swept")
				return nil
			},
		); err != nil {
			return fmt.Errorf("failed to register spool-gc job: %w", err)
		}
	}

	if a.Config.Scheduler.Enabled && a.Config.Scheduler.AutoStart {
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		a.Logger.Info().Msg("Scheduler started")
	}

	return nil
}

// Close closes all application resources in reverse dependency order
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
		time.Sleep(100 * time.Millisecond)
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.BrowserPool != nil {
		if err := a.BrowserPool.Shutdown(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to shut down browser pool")
		}
	}

	if a.SnapshotStore != nil {
		if err := a.SnapshotStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close snapshot spool")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
