package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tcpchat/commands"
	"tcpchat/internal"
	"tcpchat/moderation"
	"tcpchat/repositories"
	"tcpchat/runtime"
	"tcpchat/runtime/workers"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer (database cleanup, index
// flush) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Durable message log (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store, err := repositories.NewMessageStore(db, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("message store init failed: %w", err)
	}

	// 3. Full-text index (Bluge) backing the /search command
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()
	index := repositories.NewSearchIndex(blugeWriter, logger)

	// 4. Moderation
	moderator, err := buildModerator(config)
	if err != nil {
		return exitConfig, err
	}

	// 5. Chat runtime
	dispatcher := commands.NewDispatcher(logger, config.MinContrast)
	dispatcher.Register(
		commands.SearchHandler(index, config.SearchLimit),
		"Search", "search",
		"Searches the message history for the given words.",
		"find",
	)

	registry := runtime.NewRegistry(logger)
	deps := runtime.SessionDeps{
		Store:       store,
		Index:       index,
		Dispatcher:  dispatcher,
		Moderator:   moderator,
		ReadTimeout: config.ReadTimeout,
		MinContrast: config.MinContrast,
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener := runtime.NewListener(logger, addr, registry, deps)
	statsWorker := workers.NewServerStatsWorker(logger, registry, config.StatsInterval)

	// 6. Signals & Supervision
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(logger)
	sup.Add(listener, statsWorker)

	logger.Info("Starting chat server", "addr", addr)
	sup.Run(ctx)

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildModerator(config internal.Config) (*moderation.Moderator, error) {
	words := config.CensoredWordList()
	if len(words) == 0 {
		return nil, nil
	}
	replacement, err := internal.CharacterRune(config.CensoredChar)
	if err != nil {
		return nil, err
	}
	moderator, err := moderation.NewModerator(words, replacement)
	if err != nil {
		return nil, fmt.Errorf("moderation init failed: %w", err)
	}
	return moderator, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
