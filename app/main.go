package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yeongdo-dev/funeral-watch/app/analyze"
	"github.com/yeongdo-dev/funeral-watch/app/cfg"
	"github.com/yeongdo-dev/funeral-watch/app/config"
	"github.com/yeongdo-dev/funeral-watch/app/database"
	"github.com/yeongdo-dev/funeral-watch/app/fetch"
	"github.com/yeongdo-dev/funeral-watch/app/migration"
	"github.com/yeongdo-dev/funeral-watch/app/notify"
	"github.com/yeongdo-dev/funeral-watch/app/pipeline"
	"github.com/yeongdo-dev/funeral-watch/app/scrape"
	"github.com/yeongdo-dev/funeral-watch/app/tasks"
)

func main() {
	appCfg, modes, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)
	slog.Info("Starting funeral-watch", "version", appCfg.Version)

	if err := run(appCfg, modes); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(appCfg *cfg.Cfg, modes *cfg.Modes) error {
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	rawRepo := database.NewRawRepository(db)
	analyzedRepo := database.NewAnalyzedRepository(db)
	sentRepo := database.NewSentRepository(db)

	if modes.Cleanup {
		return runCleanup(sentRepo)
	}

	if modes.Migrate {
		importer := migration.NewImporter(appCfg.DataDir, rawRepo, analyzedRepo, sentRepo)
		return importer.Run(modes.SkipRaw)
	}

	loader := config.NewLoader(appCfg.DistrictsDir)
	districts, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load district definitions: %w", err)
	}
	slog.Info("District definitions loaded", "count", len(districts))

	proxyAddr := ""
	if appCfg.TorEnabled {
		proxyAddr = fmt.Sprintf("%s:%d", appCfg.TorHost, appCfg.TorPort)
	}
	fetchClient := fetch.NewClient(proxyAddr)

	sources := make([]pipeline.Source, 0, len(districts))
	for _, district := range districts {
		scraper, err := scrape.New(district, fetchClient)
		if err != nil {
			return fmt.Errorf("failed to build scraper: %w", err)
		}
		sources = append(sources, pipeline.Source{District: district.Name, Scraper: scraper})
	}

	analyzer := analyze.NewAnalyzer(appCfg.OpenAIAPIKey, appCfg.OpenAIModel)
	notifier := notify.NewService(notify.NewClient(appCfg.TelegramBotToken), notify.ServiceOptions{
		MainChat:    appCfg.TelegramMainChat,
		ErrorChat:   appCfg.TelegramErrorChat,
		GeneralChat: appCfg.TelegramGeneralChat,
		TestMode:    appCfg.TelegramTestMode,
		TestChat:    appCfg.TelegramTestChat,
		Timezone:    appCfg.Timezone,
	}, districts)

	p := pipeline.New(sources, analyzer, notifier, rawRepo, analyzedRepo, sentRepo, appCfg.MaxPages)
	opts := pipeline.Options{SkipRaw: modes.SkipRaw}

	if modes.Once {
		slog.Info("Running pipeline once", "skip_raw", modes.SkipRaw)
		return p.Run(context.Background(), opts)
	}

	return runScheduler(appCfg, p, opts, notifier)
}

func runCleanup(sentRepo database.SentRepository) error {
	duplicates, err := sentRepo.CleanupDuplicates()
	if err != nil {
		return fmt.Errorf("failed to cleanup duplicate sent markers: %w", err)
	}

	orphans, err := sentRepo.CleanupOrphans()
	if err != nil {
		return fmt.Errorf("failed to cleanup orphan sent markers: %w", err)
	}

	slog.Info("Cleanup completed", "duplicates", duplicates, "orphans", orphans, "total", duplicates+orphans)
	return nil
}

func runScheduler(appCfg *cfg.Cfg, p *pipeline.Pipeline, opts pipeline.Options, notifier *notify.Service) error {
	onError := func(err error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		notifier.NotifyError(ctx, "Scheduler", err.Error(), "scheduler_error", "스케줄러 실행 중 에러 발생")
	}

	scheduler := tasks.NewScheduler(func(ctx context.Context) error {
		return p.Run(ctx, opts)
	}, onError, time.Duration(appCfg.SchedulerInterval)*time.Minute)

	notifier.NotifyGeneral(context.Background(), "서버 가동 시작했습니다.")
	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down gracefully", "signal", sig.String())

	scheduler.Stop()
	notifier.NotifyGeneral(context.Background(), "서버 모두 종료합니다.")

	slog.Info("Shutdown complete")
	return nil
}
