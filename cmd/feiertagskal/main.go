package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feiertagskal/internal/commands"
	"feiertagskal/internal/config"
	"feiertagskal/internal/generate"
	"feiertagskal/internal/ical"
	appLog "feiertagskal/internal/log"
	"feiertagskal/internal/openholidays"
	"feiertagskal/internal/web"
)

type flagConfig struct {
	configPath string
	yearStart  int
	yearEnd    int
	outputDir  string
	listen     string
	serve      bool
	ferien     bool
	ferienDir  string
	source     string
	verify     bool
}

func main() {
	// Subcommands before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		commands.HashPassword(os.Args[2:])
		return
	}

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.outputDir != "" {
		conf.OutputDir = flags.outputDir
	}

	if flags.yearStart == 0 {
		flags.yearStart = time.Now().Year()
	}
	if flags.yearEnd == 0 {
		flags.yearEnd = flags.yearStart + 1
	}
	if flags.yearStart > flags.yearEnd {
		appLog.Error("invalid year range", nil,
			"year_start", flags.yearStart, "year_end", flags.yearEnd)
		os.Exit(1)
	}

	appLog.Info("feiertagskal starting",
		"year_start", flags.yearStart,
		"year_end", flags.yearEnd,
		"output_dir", conf.OutputDir,
		"serve", flags.serve,
		"source", flags.source,
		"ferien", flags.ferien,
	)

	if flags.serve {
		runServe(conf, flags)
		return
	}

	runOnce(conf, flags)
}

func runServe(conf *config.Config, flags flagConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := web.Run(ctx, conf, flags.yearStart, flags.yearEnd); err != nil {
		appLog.Error("server exited with error", err)
		os.Exit(1)
	}
	appLog.Info("feiertagskal exiting")
}

func runOnce(conf *config.Config, flags flagConfig) {
	ctx := context.Background()
	opts := generate.Options{
		States:    conf.States,
		YearStart: flags.yearStart,
		YearEnd:   flags.yearEnd,
		ICal:      ical.Config{ProdID: conf.ProdID, URL: conf.URL},
		Timestamp: time.Now().UTC(),
	}

	var client *openholidays.Client
	if flags.source == "api" || flags.ferien {
		client = openholidays.NewClient(openholidays.Options{
			BaseURL:    conf.OpenHolidays.BaseURL,
			Country:    conf.OpenHolidays.Country,
			CacheDir:   conf.OpenHolidays.CacheDir,
			WindowDays: conf.OpenHolidays.WindowDays,
		})
	}

	var res generate.Result
	switch flags.source {
	case "rules":
		res = generate.Feiertage(opts)
	case "api":
		res = generate.FeiertageFromAPI(ctx, client, opts)
	default:
		appLog.Error("unknown source", nil, "source", flags.source)
		os.Exit(1)
	}

	failed := len(res.Failed)

	if err := generate.WriteFiles(conf.OutputDir, res.Documents); err != nil {
		appLog.Error("failed to write calendars", err, "dir", conf.OutputDir)
		os.Exit(1)
	}

	if flags.ferien {
		ferienRes := generate.Ferien(ctx, client, opts)
		failed += len(ferienRes.Failed)
		if err := generate.WriteFiles(flags.ferienDir, ferienRes.Documents); err != nil {
			appLog.Error("failed to write ferien calendars", err, "dir", flags.ferienDir)
			os.Exit(1)
		}
	}

	if flags.verify {
		for state, doc := range res.Documents {
			count, err := ical.Verify(doc)
			if err != nil {
				appLog.Error("verification failed", err, "state", state)
				os.Exit(1)
			}
			appLog.Debug("verified calendar", "state", state, "events", count)
		}
		appLog.Info("all calendars verified", "states", len(res.Documents))
	}

	if failed > 0 {
		appLog.Error("generation finished with failures", nil, "failed_states", failed)
		os.Exit(1)
	}
	appLog.Info("done", "states", len(res.Documents))
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "feiertagskal.yaml", "Path to config file")
	flag.IntVar(&cfg.yearStart, "year-start", 0, "First year, inclusive (default: current year)")
	flag.IntVar(&cfg.yearEnd, "year-end", 0, "Last year, inclusive (default: year-start+1)")
	flag.StringVar(&cfg.outputDir, "out", "", "Output directory (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve calendars over HTTP instead of writing files")
	flag.BoolVar(&cfg.ferien, "ferien", false, "Also generate school-vacation calendars from the data source")
	flag.StringVar(&cfg.ferienDir, "ferien-out", "Ferien", "Output directory for school-vacation calendars")
	flag.StringVar(&cfg.source, "source", "rules", "Holiday source: rules (built-in rule engine) or api")
	flag.BoolVar(&cfg.verify, "verify", false, "Re-parse generated calendars and check structure")

	flag.Parse()

	return cfg
}
