package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	analyticsapp "aqsensor-cloud/internal/analytics/application"
	"aqsensor-cloud/internal/analytics/domain/uptime"
	apihttp "aqsensor-cloud/internal/api/http"
	"aqsensor-cloud/internal/config"
	"aqsensor-cloud/internal/jobs"
	masterdatacsv "aqsensor-cloud/internal/masterdata/infrastructure/csvfile"
	monitortelemetry "aqsensor-cloud/internal/monitoring/adapters/telemetry"
	monitorapp "aqsensor-cloud/internal/monitoring/application"
	monitoring "aqsensor-cloud/internal/monitoring/domain"
	monitormemory "aqsensor-cloud/internal/monitoring/infrastructure/memory"
	"aqsensor-cloud/internal/monitoring/infrastructure/sqlstore"
	"aqsensor-cloud/internal/monitoring/notify"
	"aqsensor-cloud/internal/observability/metrics"
	"aqsensor-cloud/internal/period"
	reportingapp "aqsensor-cloud/internal/reporting/application"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const (
	modeRun     = "run"
	modeServe   = "serve"
	modeClean   = "clean"
	modeUptime  = "uptime"
	modeStatus  = "status"
	modeSummary = "summary"
)

func main() {
	mode := flag.String("mode", modeRun, "run | serve | clean | uptime | summary | status")
	periodLabel := flag.String("period", "", "period label such as Jul-2024-2 (default: configured or current)")
	countries := flag.String("countries", "", "comma separated country codes (default: configured)")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if *countries != "" {
		cfg.Countries = strings.Split(strings.ToUpper(*countries), ",")
	}
	if *periodLabel != "" {
		cfg.Period = *periodLabel
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, store, err := openStatusStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("status store error: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	metrics.Init(db, logger)

	layout, err := filesystem.NewLayout(cfg.DataRoot)
	if err != nil {
		logger.Fatalf("layout error: %v", err)
	}
	uptimePolicy, dailyPolicy, err := cfg.Policies()
	if err != nil {
		logger.Fatalf("policy error: %v", err)
	}
	calculator := uptime.NewCalculator(uptime.WithUptimePolicy(uptimePolicy), uptime.WithDailyPolicy(dailyPolicy))

	uptimeService, err := analyticsapp.NewUptimeService(layout, calculator, logger,
		analyticsapp.WithUptimeLevel(cfg.RawLevel),
		analyticsapp.WithUptimeWorkers(cfg.Workers),
	)
	if err != nil {
		logger.Fatalf("uptime service error: %v", err)
	}
	cleaningService, err := analyticsapp.NewCleaningService(layout, cfg.Workers, logger)
	if err != nil {
		logger.Fatalf("cleaning service error: %v", err)
	}
	publisher, err := reportingapp.NewPublisher(layout, cfg.ReportDir, logger)
	if err != nil {
		logger.Fatalf("publisher error: %v", err)
	}
	registry, err := masterdatacsv.NewRegistry(cfg.SensorsDir)
	if err != nil {
		logger.Fatalf("sensor registry error: %v", err)
	}
	probe, err := monitortelemetry.NewFileProbe(layout, cfg.RawLevel)
	if err != nil {
		logger.Fatalf("probe error: %v", err)
	}
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Alerts.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Alerts.WebhookURL)
	}
	monitor, err := monitorapp.NewMonitor(store, registry, probe, logger, monitorapp.WithNotifier(notifier))
	if err != nil {
		logger.Fatalf("monitor error: %v", err)
	}
	summaryService, err := analyticsapp.NewSummaryService(layout, logger,
		analyticsapp.WithSummaryRegistry(registry),
		analyticsapp.WithSummaryWorkers(cfg.Workers),
	)
	if err != nil {
		logger.Fatalf("summary service error: %v", err)
	}
	runner, err := jobs.NewRunner(cleaningService, uptimeService, publisher, monitor, cfg.CleanLevel, logger,
		jobs.WithSummary(summaryService, publisher),
	)
	if err != nil {
		logger.Fatalf("runner error: %v", err)
	}

	now := time.Now().UTC()
	p := cfg.PeriodAt(now)
	switch *mode {
	case modeServe:
		serve(ctx, cfg, runner, uptimeService, monitor, logger)
	case modeRun:
		runPipeline(ctx, runner, cfg.Countries, p, now, jobs.AllSteps, logger)
	case modeClean:
		runPipeline(ctx, runner, cfg.Countries, p, now, jobs.Steps{Clean: true}, logger)
	case modeUptime:
		runPipeline(ctx, runner, cfg.Countries, p, now, jobs.Steps{Uptime: true}, logger)
	case modeSummary:
		runPipeline(ctx, runner, cfg.Countries, p, now, jobs.Steps{Summary: true}, logger)
	case modeStatus:
		runPipeline(ctx, runner, cfg.Countries, p, now, jobs.Steps{Status: true}, logger)
	default:
		logger.Fatalf("unknown mode %q", *mode)
	}
}

func runPipeline(ctx context.Context, runner *jobs.Runner, countries []string, p period.Period, date time.Time, steps jobs.Steps, logger *log.Logger) {
	runs, err := runner.Run(ctx, countries, p, date, steps)
	if err != nil {
		logger.Fatalf("run error: %v", err)
	}
	failed := 0
	for _, run := range runs {
		if run.Failed() {
			failed++
		}
		if len(run.OffTwice) > 0 {
			logger.Printf("sensors off for two consecutive sessions: country=%s sensors=%s", run.Country, strings.Join(run.OffTwice, ","))
		}
	}
	logger.Printf("run finished: period=%s countries=%d failed=%d", p.Label(), len(runs), failed)
}

func serve(ctx context.Context, cfg config.Config, runner *jobs.Runner, uptimeService *analyticsapp.UptimeService, monitor *monitorapp.Monitor, logger *log.Logger) {
	scheduler := jobs.NewScheduler(runner, cfg.Countries, cfg.Schedule.DailyAt, cfg.RunDays, cfg.PeriodAt, logger)
	go scheduler.Start(ctx)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apihttp.NewRouter(uptimeService, monitor, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("http server error: %v", err)
	}
}

// openStatusStore opens the SQL status store, or an in-memory store when no
// DSN is configured.
func openStatusStore(ctx context.Context, cfg config.Config, logger *log.Logger) (*sql.DB, monitoring.StatusStore, error) {
	if cfg.Database.DSN == "" {
		logger.Printf("no database configured, status history is kept in memory")
		return nil, monitormemory.NewStatusStore(), nil
	}
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if cfg.Database.Driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	store, err := sqlstore.NewStatusStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, store, nil
}
