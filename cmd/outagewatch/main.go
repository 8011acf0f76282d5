package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/config"
	"outagewatch/pkg/extractor"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/metrics"
	"outagewatch/pkg/monitor"
	"outagewatch/pkg/navigator"
	"outagewatch/pkg/notifier"
	"outagewatch/pkg/scheduler"
	"outagewatch/pkg/server"
	"outagewatch/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file (json or yaml)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	callerMode, err := logger.ParseCallerDisplayMode(cfg.App.LogCaller)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	logger.SetCallerDisplayMode(callerMode)
	if err := logger.InitLogger(cfg.App.IsDevelopment(), cfg.App.LogFile, cfg.App.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Fatal("Watcher stopped with error", zap.Error(err))
	}
	logger.Info("Watcher stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting outage watcher",
		zap.String("url", cfg.Target.URL),
		zap.String("address", fmt.Sprintf("%s, %s %s", cfg.Address.ExpectCity, cfg.Address.ExpectStreet, cfg.Address.ExpectHouse)),
		zap.String("poll", cfg.Poll.Cron))

	db, err := store.Open(store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return err
	}
	snapshots, err := store.New(db)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	pipeline := navigator.New(navigator.Config{
		URL:       cfg.Target.URL,
		Selectors: navigatorSelectors(cfg.Target),
		Address:   addressQuery(cfg.Address),
		Timing:    navigatorTiming(cfg.Poll),
		Humanizer: humanizer(cfg.Browser),
		OnCaptcha: func(o navigator.CaptchaOutcome) { rec.Captcha(string(o)) },
	})

	session := browser.NewSession(browser.SessionConfig{
		Launcher: &browser.ChromeLauncher{
			Fingerprint: fingerprint(cfg.Browser),
			Headless:    cfg.Browser.Headless,
			ExecPath:    cfg.Browser.ChromePath,
			Origin:      cfg.Target.URL,
		},
		Preparer:      pipeline,
		Cookies:       browser.NewCookieStore(cfg.Browser.CookieFile),
		OnStateChange: func(s browser.State) { rec.SessionState(int(s)) },
	})
	defer session.Teardown()

	exCfg := extractor.DefaultConfig()
	exCfg.CropTop = cfg.Target.CropTop
	exCfg.CropBottom = cfg.Target.CropBottom

	mon := monitor.New(monitor.Config{
		Session:     session,
		Captcha:     pipeline,
		Extractor:   extractor.New(exCfg, pipeline.SurveyDismisser()),
		Store:       snapshots,
		Sink:        sink(ctx, cfg.Telegram),
		Recorder:    rec,
		TickTimeout: time.Duration(cfg.Poll.TickTimeout) * time.Second,
	})

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = reg
	}
	httpServer, err := server.NewHTTPServer(ctx, &server.Config{
		Address:   cfg.Server.Address,
		Port:      cfg.Server.Port,
		Config:    cfg,
		Monitor:   mon,
		Snapshots: snapshots,
		Gatherer:  gatherer,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- httpServer.Start() }()

	// The operator API is up before init so a CAPTCHA can be solved by hand.
	go func() {
		if err := mon.Init(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Initial browser session init failed, waiting for operator or scheduled restart", zap.Error(err))
		}
	}()

	loc, err := cfg.Poll.Location()
	if err != nil {
		return err
	}
	sched, err := scheduler.NewTaskScheduler(ctx, &scheduler.Config{
		PollCron:    cfg.Poll.Cron,
		RestartCron: cfg.Poll.RestartCron,
		Location:    loc,
	}, mon)
	if err != nil {
		return err
	}
	httpServer.SetScheduler(sched)
	go func() {
		if err := sched.Start(); err != nil {
			logger.Error("Scheduler failed", zap.Error(err))
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := sched.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Scheduler shutdown incomplete", zap.Error(err))
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	return nil
}

func navigatorSelectors(t *config.TargetConfig) navigator.Selectors {
	sel := navigator.DefaultSelectors()
	if t.SurveySelector != "" {
		sel.SurveyClose = t.SurveySelector
	}
	if t.CaptchaSelector != "" {
		sel.Captcha = t.CaptchaSelector
	}
	return sel
}

func addressQuery(a *config.AddressConfig) navigator.AddressQuery {
	return navigator.AddressQuery{
		City:          a.City,
		Street:        a.Street,
		House:         a.House,
		CityOrdinal:   a.CityOrdinal,
		StreetOrdinal: a.StreetOrdinal,
		HouseOrdinal:  a.HouseOrdinal,
		ExpectCity:    a.ExpectCity,
		ExpectStreet:  a.ExpectStreet,
		ExpectHouse:   a.ExpectHouse,
	}
}

func navigatorTiming(p *config.PollConfig) navigator.Timing {
	timing := navigator.DefaultTiming()
	if p.CaptchaCeiling > 0 {
		timing.CaptchaCeiling = time.Duration(p.CaptchaCeiling) * time.Second
	}
	return timing
}

func humanizer(b *config.BrowserConfig) navigator.Humanizer {
	if !b.Jitter {
		return navigator.NoJitter{}
	}
	return navigator.NewJitterHumanizer()
}

func fingerprint(b *config.BrowserConfig) browser.Fingerprint {
	fp := browser.DefaultFingerprint()
	if b.UserAgent != "" {
		fp.UserAgent = b.UserAgent
	}
	if b.Locale != "" {
		fp.Locale = b.Locale
	}
	if b.Timezone != "" {
		fp.Timezone = b.Timezone
	}
	if b.Width > 0 && b.Height > 0 {
		fp.Width, fp.Height = b.Width, b.Height
	}
	return fp
}

func sink(ctx context.Context, tg *notifier.TelegramConfig) notifier.Sink {
	if tg == nil || !tg.Enabled {
		logger.Warn("Telegram disabled, changes are only logged")
		return notifier.LogSink{}
	}
	tn := notifier.NewTelegramNotifier(tg)
	if err := tn.TestConnection(ctx); err != nil {
		logger.Warn("Telegram connection test failed", zap.Error(err))
	}
	return tn
}
