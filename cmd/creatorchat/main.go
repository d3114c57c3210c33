package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/Netflix/go-env"

	"creator-chat/domain"
	"creator-chat/feed"
	"creator-chat/realtime"
	"creator-chat/repositories"
	"creator-chat/runtime/workers"
	"creator-chat/services"
	"creator-chat/session"
	"creator-chat/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and centralizes error reporting, so every
// deferred cleanup executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository init failed: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()
	userRepository := repositories.NewUserRepository(db)
	sessionRepository := repositories.NewSessionRepository(db)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Realtime notifier under supervision
	notifier := realtime.NewNotifier(log, config.EventBufferSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(notifier)
	go sup.Run(ctx)

	// 6. Services
	authService := services.NewAuthService(userRepository, sessionRepository,
		[]byte(config.TokenSecret), config.AuthTokenDuration, log)
	chatService := services.NewChatService(messageRepository, userRepository,
		notifier, config.MaxContentLength, log)

	// 7. Session manager & feed synchronizer
	sessions := session.NewManager(authService, log)
	defer sessions.Close()
	synchronizer := feed.NewSynchronizer(chatService, notifier, services.TableMessages, log)
	defer synchronizer.Deactivate()

	// 8. UI wiring. The manager and synchronizer push into the program
	// through the model, never the other way around.
	model := ui.NewModel(ctx, log, authService, chatService, synchronizer)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(program)

	sessions.SetOnChange(func(sess *domain.Session) {
		model.Send(ui.SessionChangedMsg{Session: sess})
	})
	synchronizer.SetOnChange(func() {
		model.Send(ui.FeedUpdatedMsg{})
	})

	// The initial session resolution races the UI startup on purpose. The
	// result arrives as a message whenever it lands.
	go func() {
		if err := sessions.Initialize(ctx); err != nil {
			log.Warn("session restore failed", "error", err)
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui terminated: %w", err)
	}

	stop()
	sup.Stop()
	return nil
}
