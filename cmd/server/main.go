package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"calendar-assistant/internal/app"
	"calendar-assistant/internal/cache"
	"calendar-assistant/internal/config"
	"calendar-assistant/internal/localtime"
	"calendar-assistant/internal/scheduling"
	"calendar-assistant/internal/server"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "calendar-assistant",
		Usage: "Scheduling core of the calendar assistant: conflicts, slots, free windows and caches.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			windowsCommand(),
		},
		Action: serve,
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *time.Location, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, loc, logger, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API and the cache sweeper.",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, loc, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	a := app.New(cfg, loc, localtime.RealClock{}, logger)
	if a.Google == nil {
		logger.Info("google calendar disabled")
	}
	if a.CalDAV == nil {
		logger.Info("caldav source disabled")
	}
	if len(cfg.Auth.StaticTokens) == 0 && cfg.Auth.JWTSecret == "" {
		logger.Warn("no static tokens or jwt secret configured, every /api request will be rejected")
	}

	router := server.NewRouter(app.RequestID(), app.RequestLogger(logger))
	a.Routes(router, app.AuthMiddleware(cfg.Auth))

	sweeper := cache.NewSweeper(loc, cfg.SweepCron, logger.With("component", "sweeper"), a.Analysis)
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Start(ctx) })
	g.Go(func() error { return server.Run(ctx, router, cfg.Listen, logger) })
	return g.Wait()
}

func windowsCommand() *cli.Command {
	return &cli.Command{
		Name:  "windows",
		Usage: "Print the free windows of an ICS file as JSON.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ics", Usage: "path to an .ics file", Required: true},
			&cli.IntFlag{Name: "horizon", Usage: "days to scan (0 uses the config)"},
			&cli.IntFlag{Name: "min-gap", Usage: "minimum window in minutes (0 uses the config)"},
		},
		Action: func(c *cli.Context) error {
			cfg, loc, logger, err := loadConfig(c)
			if err != nil {
				return err
			}

			f, err := os.Open(c.String("ics"))
			if err != nil {
				return fmt.Errorf("open ics: %w", err)
			}
			defer f.Close()

			raws, err := app.ParseICS(f, loc, logger)
			if err != nil {
				return err
			}

			planner := scheduling.NewPlanner(loc, localtime.RealClock{}, logger)
			opts := cfg.Windows
			if h := c.Int("horizon"); h > 0 {
				opts.HorizonDays = h
			}
			if m := c.Int("min-gap"); m > 0 {
				opts.MinGapMinutes = m
			}
			windows := planner.ScanFreeWindows(planner.NormalizeAll(raws), opts)
			logger.Debug("scanned free windows", "events", len(raws), "windows", len(windows))

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(windows)
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
