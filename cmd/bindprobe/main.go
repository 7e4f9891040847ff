package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bindprobe/internal/config"
	"bindprobe/internal/httpapi"
	"bindprobe/internal/probe"
	"bindprobe/internal/scenario"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Flags with environment variable defaults
	defaultAddr := os.Getenv("BINDPROBE_ADDR")
	defaultDir := "./scenarios"
	if v := os.Getenv("BINDPROBE_SCENARIOS_DIR"); v != "" {
		defaultDir = v
	}
	defaultScenario := os.Getenv("BINDPROBE_SCENARIO")

	addr := flag.String("addr", defaultAddr, "Diagnostics HTTP listen address, e.g. :8080 (empty disables)")
	corsOrigins := flag.String("cors-origins", os.Getenv("BINDPROBE_CORS_ORIGINS"), "Comma-separated CORS origins for the diagnostics API (empty disables CORS)")
	scenariosDir := flag.String("scenarios-dir", defaultDir, "Directory to scan for scenario files")
	scenarioID := flag.String("scenario", defaultScenario, "Scenario id to run (defaults to the only scenario in the directory)")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	logFormat := flag.String("log-format", "console", "Log format: console|json")
	configPath := flag.String("config", "", "Optional config file (.yaml/.json/.toml); flags take precedence")
	flag.Parse()

	logger := newLogger(*logLevel, *logFormat)

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load config")
			return 1
		}
		applyConfig(cfg, addr, scenariosDir, scenarioID, logLevel, logFormat)
		logger = newLogger(*logLevel, *logFormat)
	}

	probe.SetLogger(logger)
	httpapi.SetLogger(logger)

	reg, err := scenario.LoadDir(*scenariosDir)
	if err != nil {
		logger.Error().Err(err).Str("dir", *scenariosDir).Msg("failed to load scenarios")
		return 1
	}
	sc, err := pickScenario(reg, *scenarioID, *scenariosDir)
	if err != nil {
		logger.Error().Err(err).Msg("no scenario to run")
		return 1
	}

	runner, err := scenario.NewRunner(scenario.RunnerConfig{})
	if err != nil {
		logger.Error().Err(err).Msg("failed to attach verification session")
		return 1
	}

	if *addr != "" {
		if *corsOrigins != "" {
			httpapi.SetCORSOptions(true, splitList(*corsOrigins), []string{"GET", "OPTIONS"}, []string{"Content-Type"})
		}
		srv := &http.Server{Addr: *addr, Handler: httpapi.NewMux(&statusService{runner: runner, scenario: sc.ID})}
		go func() {
			logger.Info().Str("addr", *addr).Msg("diagnostics API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("diagnostics server error")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn().Err(err).Msg("graceful shutdown error")
			}
		}()
	}

	// Ctrl+C / SIGTERM abort the replay between steps
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("scenario", sc.ID).Msg("running scenario")
	res, err := runner.Run(ctx, sc)
	if err != nil && !scenario.IsMismatch(err) {
		logger.Error().Err(err).Msg("scenario run failed")
		return 1
	}
	if scenario.IsMismatch(err) {
		// The verdict still rules the exit code; the mismatch is for the
		// scenario author.
		logger.Warn().Err(err).Msg("scenario expectation mismatch")
	}

	r := res.Report
	logger.Info().
		Str("verdict", string(r.Verdict)).
		Uint64("bind_events", r.BindEvents).
		Uint64("out_of_phase", r.OutOfPhase).
		Uint64("phase_query_errors", r.PhaseQueryErrors).
		Uint64("metadata_errors", r.MetadataErrors).
		Int("exit_code", res.ExitCode).
		Msg("verification finished")
	return res.ExitCode
}

// pickScenario resolves the scenario to run: an explicit id, or the single
// loaded scenario when the directory holds exactly one.
func pickScenario(reg *scenario.Registry, id, dir string) (*scenario.Scenario, error) {
	if id != "" {
		return reg.Get(id)
	}
	list := reg.List()
	switch len(list) {
	case 0:
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	case 1:
		return list[0], nil
	}
	return nil, errors.New("multiple scenarios loaded; pick one with -scenario")
}

// splitList splits a comma-separated flag value, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyConfig fills flag values the user did not set explicitly.
func applyConfig(cfg config.Config, addr, scenariosDir, scenarioID, logLevel, logFormat *string) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["addr"] && cfg.Addr != "" {
		*addr = cfg.Addr
	}
	if !set["scenarios-dir"] && cfg.ScenariosDir != "" {
		*scenariosDir = cfg.ScenariosDir
	}
	if !set["scenario"] && cfg.Scenario != "" {
		*scenarioID = cfg.Scenario
	}
	if !set["log-level"] && cfg.LogLevel != "" {
		*logLevel = cfg.LogLevel
	}
	if !set["log-format"] && cfg.LogFormat != "" {
		*logFormat = cfg.LogFormat
	}
}

func newLogger(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
