package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/comigor/tutor-go/internal/config"
	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/history"
	"github.com/comigor/tutor-go/internal/llm"
	"github.com/comigor/tutor-go/internal/logger"
	"github.com/comigor/tutor-go/internal/tutor"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tutor",
		Short:         "Physics tutor chat backed by a streaming LLM",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml or $CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts),
		newMCPCmd(opts),
	)
	return cmd
}

// app is what every front-end needs: the configuration and a registry
// wired to the configured provider and transcript backend.
type app struct {
	cfg      *config.Config
	registry *tutor.Registry
	close    func()
}

func newApp(opts *rootOptions) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger.SetLevel(level)

	streamer, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "create model client")
	}
	assembler := llm.Assembler{
		Model:             cfg.LLM.Model,
		SystemInstruction: tutor.SystemInstruction(cfg.LLM.SystemPrompt),
	}

	stores, closeStores := storeFactory(cfg.History)
	return &app{
		cfg:      cfg,
		registry: tutor.NewRegistry(streamer, assembler, stores),
		close:    closeStores,
	}, nil
}

// storeFactory opens the configured transcript backend. A SQLite backend
// that cannot be opened falls back to memory.
func storeFactory(cfg config.HistoryConfig) (tutor.StoreFactory, func()) {
	if cfg.Driver != config.HistoryDriverSQLite {
		return tutor.MemoryStores, func() {}
	}

	db, err := history.Open(cfg.DSN)
	if err != nil {
		logger.L.Warn("failed to open history database, falling back to memory", "error", err)
		return tutor.MemoryStores, func() {}
	}
	logger.L.Info("history database opened", "driver", cfg.Driver)

	stores := func(sessionID string) conversation.Store {
		return db.Store(sessionID)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.L.Warn("failed to close history database", "error", err)
		}
	}
	return stores, closeDB
}
