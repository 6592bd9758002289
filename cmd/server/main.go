package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundrouter/internal/app"
	"fundrouter/internal/config"
	"fundrouter/internal/db"
	"fundrouter/internal/handlers"
	"fundrouter/internal/router"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	if err := db.InitDB(); err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewServiceContainer(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build service container")
	}
	defer container.Close()

	logger := logrus.StandardLogger()
	engine := router.New(router.Handlers{
		Auth:       handlers.NewAuthHandler(),
		AdminAuth:  handlers.NewAdminAuthHandler(),
		Order:      handlers.NewOrderHandler(container.OrderService, container.LedgerService),
		Withdrawal: handlers.NewWithdrawalHandler(container.SettlementService, container.LedgerService),
		Balance:    handlers.NewBalanceHandler(container.LedgerService),
		Admin:      handlers.NewAdminHandler(container.TreasuryService, container.LedgerService, container.Breaker, container.ConfigRepo),
		WebSocket:  handlers.NewWebSocketHandler(container.Push),
	}, logger)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", addr).Info("fundrouter listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
