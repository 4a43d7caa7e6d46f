package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/handlers/http"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/app"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	appContext "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"
)

var configPath = flag.String("config", "config.yaml", "service configuration file")

func main() {
	flag.Parse()
	config.LoadEnv()
	if v := os.Getenv("CONFIG_PATH"); len(v) > 0 {
		*configPath = v
	}
	cfg := config.MustReadConfig(*configPath)

	if err := logger.InitGlobalLogger(cfg.Logger); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}

	globalLogger := logger.GetGlobalLogger()
	appContext.SetDefaultLogger(globalLogger.CoreLogger.Logger)
	coreLogger := globalLogger.CoreLogger

	coreLogger.Info("Starting community scanner coordinator")
	coreLogger.InfoWithFields("Configuration loaded", map[string]interface{}{
		"config_path": *configPath,
		"db_driver":   cfg.DB.Driver,
		"log_level":   cfg.Logger.Level,
		"log_output":  cfg.Logger.Output,
	})

	appContainer := app.NewMustApp(cfg)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	coreLogger.Info("Starting liveness sweeper...")
	appContainer.StartLiveness()

	go func() {
		sig := <-signalChan
		coreLogger.InfoWithFields("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		coreLogger.Info("Stopping liveness sweeper...")
		if err := appContainer.Close(); err != nil {
			coreLogger.Error("Error while closing storage: %v", err)
		}

		coreLogger.Info("Graceful shutdown completed")
		os.Exit(0)
	}()

	coreLogger.Info("Starting HTTP server")
	if err := http.Run(appContainer, cfg.Server); err != nil {
		coreLogger.Fatal("HTTP server failed: %v", err)
	}
}
