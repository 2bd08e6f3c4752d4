package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/app"
	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/models"
	"github.com/ternarybob/golfstats/internal/server"
	"github.com/ternarybob/golfstats/internal/storage/postgres"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	logLevel    = flag.String("log-level", "", "Log level (overrides config)")
	headless    = flag.Bool("headless", true, "Run scraper browsers headless")
	etlUser     = flag.String("user", "", "Scope the etl command to a single user ID")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (repeatable, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	// The subcommand comes before the flags: golfstats etl -user abc
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}
	if err := flag.CommandLine.Parse(args); err != nil {
		os.Exit(2)
	}

	if *showVersion || command == "version" {
		fmt.Printf("GolfStats version %s (build %s)\n", common.GetVersion(), common.GetBuild())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		for _, candidate := range []string{"golfstats.toml", "deployments/local/golfstats.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFiles = append(configFiles, candidate)
				break
			}
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// Only override headless when the flag is given explicitly, so config
	// values survive a bare invocation
	var headlessOverride *bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			headlessOverride = headless
		}
	})
	common.ApplyFlagOverrides(config, *serverPort, *logLevel, headlessOverride)

	logger := common.InitLogger(config)
	common.InstallCrashHandler("./logs")
	common.PrintBanner(common.GetVersion())

	switch command {
	case "serve":
		runServe(config, logger)
	case "etl":
		runETL(config, logger, *etlUser)
	case "report":
		runReport(config, logger)
	case "migrate":
		runMigrate(config, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve, etl, report, migrate or version)\n", command)
		os.Exit(2)
	}
}

func runServe(config *common.Config, logger arbor.ILogger) {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	srv := server.New(application)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Fatal().Str("panic", fmt.Sprintf("%v", r)).Msg("Server goroutine panicked")
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Give goroutine a moment to start
	time.Sleep(100 * time.Millisecond)

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	logger.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}

// runETL performs a one-shot scrape and load, then exits
func runETL(config *common.Config, logger arbor.ILogger, userID string) {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var run *models.ETLRun
	if userID != "" {
		run, err = application.ETLService.RunUser(ctx, userID, models.TriggerCLI)
	} else {
		run, err = application.ETLService.RunAll(ctx, models.TriggerCLI)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("ETL run failed")
	}

	fmt.Printf("ETL run %s finished: %d users processed, %d skipped, %d rounds created, %d updated in %s\n",
		run.ID, run.UsersProcessed, run.UsersSkipped, run.RoundsCreated, run.RoundsUpdated,
		run.Duration().Round(time.Second))
	for _, msg := range run.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	if len(run.Errors) > 0 {
		os.Exit(1)
	}
}

// runReport generates the weekly PDF reports once, then exits
func runReport(config *common.Config, logger arbor.ILogger) {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx, cancel := signalContext()
	defer cancel()

	reports, err := application.ReportService.GenerateWeekly(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Report generation failed")
	}

	fmt.Printf("Generated %d report(s)\n", len(reports))
	for _, info := range reports {
		fmt.Printf("  %s (%d bytes)\n", info.Name, info.SizeBytes)
	}
}

// runMigrate applies the schema and RLS policies without starting services
func runMigrate(config *common.Config, logger arbor.ILogger) {
	ctx, cancel := signalContext()
	defer cancel()

	db, err := postgres.NewPostgresDB(logger, &config.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Schema migration failed")
	}

	applied, skipped := db.ApplyRLS(ctx)
	fmt.Printf("Migrations applied, RLS policies: %d applied, %d skipped\n", applied, skipped)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
