package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	faceflow "github.com/Haymar136/faceflow-student-hub"
	"github.com/Haymar136/faceflow-student-hub/internal/config"
	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "faceflow:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML configuration file")
	addr := flag.String("addr", "", "HTTP bind address")
	store := flag.String("store", "", "Session store backend: memory, file, sqlite, postgres or redis")
	storePath := flag.String("store-path", "", "Directory or database file for the file and sqlite backends")
	credentials := flag.String("credentials", "", "YAML file with the login credential table")
	logLevel := flag.String("log-level", "", "Log level: "+logutil.LevelNames())
	logFormat := flag.String("log-format", "", "Log format: text or json")
	exportRoster := flag.Bool("export-roster", false, "Write the seeded student roster as YAML and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	// flags win over the file and the environment, but only when given
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "store":
			cfg.Store.Backend = *store
		case "store-path":
			cfg.Store.Path = *storePath
		case "credentials":
			cfg.Auth.CredentialsFile = *credentials
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logutil.Setup(logutil.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ff, err := faceflow.New(ctx,
		faceflow.WithLogger(logger),
		faceflow.WithConfig(cfg),
	)
	if err != nil {
		logger.Error("starting faceflow", "err", err)
		return err
	}
	defer ff.Close()

	if *exportRoster {
		return ff.Attendance.ExportRosterYAML(os.Stdout)
	}

	return ff.Serve(ctx, cfg.Addr)
}
