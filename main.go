package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/diabetes-tracker/internal/api"
	"github.com/vladimiradmaev/diabetes-tracker/internal/app"
	"github.com/vladimiradmaev/diabetes-tracker/internal/bot"
	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	if err := logger.InitWithConfig(cfg.Logger.Options()); err != nil {
		logger.Fatal("Failed to init logger", "error", err)
	}
	if envErr != nil {
		logger.Warn(".env file not found, using process environment")
	}
	logger.Info("Starting Diabetes Tracker", "addr", cfg.HTTP.Addr, "db_driver", cfg.DB.Driver)

	a, err := app.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.NewBot(cfg.TelegramToken, a.BotDependencies(), a.Errors)
		if err != nil {
			logger.Error("Telegram bot disabled", "error", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Bot stopped with error", "error", err)
				}
			}()
		}
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
	}

	server := api.NewServer(api.Config{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, a.APIServices(), a.Errors)

	if err := server.Run(ctx); err != nil {
		logger.Error("HTTP server stopped with error", "error", err)
		stop()
	}
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("Shutdown incomplete", "error", err)
		os.Exit(1)
	}
	logger.Info("Diabetes Tracker stopped")
}
