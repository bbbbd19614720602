// Package app wires the relay process together: logging, the connection
// registry, the protocol handler, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"time"

	servernet "physics-playground/internal/net"
	"physics-playground/internal/net/ws"
	"physics-playground/logging"
	loggingSinks "physics-playground/logging/sinks"
)

// listenAddr is fixed; the relay takes no flag or environment configuration.
const listenAddr = ":8080"

type Config struct {
	Logger  *log.Logger
	Logging logging.Config
}

func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logCfg := cfg.Logging
	if logCfg == (logging.Config{}) {
		logCfg = logging.DefaultConfig()
	}

	sinkList := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)},
	}
	var eventLog *os.File
	if logCfg.JSON.FilePath != "" {
		file, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		eventLog = file
		sinkList = append(sinkList, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSONSink(file)})
	}

	router := logging.NewRouter(logCfg, logging.SystemClock{}, sinkList)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := router.Close(closeCtx); err != nil {
			logger.Printf("failed to close logging router: %v", err)
		}
		if eventLog != nil {
			eventLog.Close()
		}
	}()

	clientDir, err := servernet.ResolveClientAssetsDir()
	if err != nil {
		return fmt.Errorf("locate client assets: %w", err)
	}

	registry := ws.NewRegistry(ws.RegistryConfig{Logger: logger, Publisher: router})
	wsHandler := ws.NewHandler(registry, ws.HandlerConfig{Logger: logger, Publisher: router})
	handler := servernet.NewHTTPHandler(wsHandler, registry, servernet.HTTPHandlerConfig{
		ClientDir: clientDir,
		Logger:    logger,
	})

	srv := &nethttp.Server{Addr: listenAddr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("relay listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}
