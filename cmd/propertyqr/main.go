package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/WankioM/property-qr/internal/config"
	"github.com/WankioM/property-qr/pkg/logger"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "propertyqr",
		Usage:   "Property QR code issuance and scan redirect service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "host", Usage: "API listen host"},
			&cli.IntFlag{Name: "port", Usage: "API listen port"},
			&cli.StringFlag{Name: "store-driver", Usage: "Store driver (postgres or memory)"},
			&cli.StringFlag{Name: "storage-type", Usage: "Object storage type (s3 or memory)"},
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "base-url", Aliases: []string{"b"}, Usage: "Public base URL of this service"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (debug, info, warn, error)"},
			&cli.BoolFlag{Name: "no-scheduler", Usage: "Disable scheduled jobs"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "job",
				Usage:     "Run a scheduled job once and exit",
				ArgsUsage: "<regenerate_expired|cleanup_scans|generate_missing|refresh_analytics>",
				Action: func(c *cli.Context) error {
					return runJob(c)
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if c.IsSet("config") {
		os.Setenv("CONFIG_FILE", c.String("config"))
	}

	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override with flags if set
	if c.IsSet("host") {
		cfg.APIHost = c.String("host")
	}
	if c.IsSet("port") {
		cfg.APIPort = c.Int("port")
	}
	if c.IsSet("store-driver") {
		cfg.StoreDriver = c.String("store-driver")
	}
	if c.IsSet("storage-type") {
		cfg.StorageType = c.String("storage-type")
	}
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("no-scheduler") {
		cfg.SchedulerEnabled = !c.Bool("no-scheduler")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	a.start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	if err := a.server.Shutdown(); err != nil {
		log.Error("Failed to shut down API server", "error", err)
	}
	return nil
}

func runJob(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one job name", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Development, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	a, err := newApplication(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	a.dispatcher.Start()
	return a.scheduler.RunNow(c.Context, c.Args().First())
}
