package main

import (
	"chat-relay/infrastructure/api"
	"chat-relay/infrastructure/grpc/admin"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/runtime"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps every defer on the exit path, which os.Exit in main would skip.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	typingScope, err := runtime.ParseTypingScope(config.TypingScope)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// 2. Storage
	gateway, err := storage.Open(storage.Options{
		Driver:         config.StorageDriver,
		BadgerFilepath: config.BadgerFilepath,
		SQLiteFilepath: config.SQLiteFilepath,
	}, log)
	if err != nil {
		return fmt.Errorf("storage opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing storage...", "driver", config.StorageDriver)
		_ = gateway.Close()
	}()

	// 3. Orchestration
	orchestrator := runtime.NewOrchestrator(log, gateway, runtime.Options{
		AdminUsername:      config.AdminUsername,
		PresenceBufferSize: config.PresenceBufferSize,
		TypingScope:        typingScope,
		RestartInterval:    config.RestartInterval,
		MetricInterval:     config.MetricInterval,
	})
	chatService := services.NewChatService(log, orchestrator, gateway, config.LimitMessages)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator.Start(ctx)

	// 5. WebSocket + HTTP API
	wsCtx, closeSessions := context.WithCancel(context.Background())
	defer closeSessions()
	wsHandler := ws.NewHandler(wsCtx, log, chatService, ws.Options{
		BufferSize:       config.ConnectionBufferSize,
		WriteTimeout:     config.WriteTimeout,
		PingInterval:     config.PingInterval,
		PingTimeout:      config.PingTimeout,
		MaxContentLength: config.MaxContentLength,
		OriginPatterns:   config.Origins(),
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           api.NewRouter(log, chatService, wsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Admin gRPC
	adminAddress := fmt.Sprintf("%s:%d", config.Host, config.AdminPort)
	listener, err := net.Listen("tcp", adminAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", adminAddress, err)
	}
	adminServer := admin.NewGRPCServer(log, []byte(config.AdminTokenSecret), admin.NewAdminServer(log, chatService))

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting admin gRPC server", "address", adminAddress)
		if err := adminServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case runErr = <-errChan:
	}

	// 8. Final Cleanup: stop accepting, close live sessions, then mark everyone offline
	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	closeSessions()
	wsHandler.Wait()
	adminServer.GracefulStop()
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return runErr
}
