package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"standup-bot/internal/config"
	"standup-bot/internal/handlers"
	"standup-bot/internal/logging"
	"standup-bot/internal/scheduler"
	"standup-bot/internal/server"
	"standup-bot/internal/sheets"
	"standup-bot/internal/standup"
	"standup-bot/internal/storage"
	"standup-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "standup-bot",
		Short: "Telegram bot collecting daily standup updates",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file (ignored when missing)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("storage-driver", defaults.GetString("storage.driver"), "State storage (json, sqlite)")
	cmd.PersistentFlags().String("storage-path", defaults.GetString("storage.path"), "State file or database path")
	cmd.PersistentFlags().String("export-driver", defaults.GetString("export.driver"), "Export target (auto, sheets, xlsx)")
	cmd.PersistentFlags().Int("http-port", defaults.GetInt("http.port"), "Liveness and metrics port")

	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "storage.driver", "storage-driver")
	bindFlag(cmd, "storage.path", "storage-path")
	bindFlag(cmd, "export.driver", "export-driver")
	bindFlag(cmd, "http.port", "http-port")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	utils.Must(viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)))
}

func initConfig() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func openPersister(cfg config.Config) (storage.Persister, func(), error) {
	if cfg.StorageDriver == "sqlite" {
		db, err := storage.OpenSQLite(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
	return storage.NewJSONFile(cfg.StoragePath), func() {}, nil
}

func openSheets(ctx context.Context, cfg config.Config) (sheets.Client, error) {
	if cfg.ExportDriver == "sheets" {
		return sheets.NewGoogle(ctx, sheets.GoogleConfig{
			CredentialsFile: cfg.GoogleCredentialsFile,
			ClientEmail:     cfg.GoogleClientEmail,
			PrivateKey:      cfg.GooglePrivateKey,
		})
	}
	return sheets.NewWorkbook(cfg.XLSXDir)
}

func run(ctx context.Context) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persister, closePersister, err := openPersister(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closePersister()

	clock := clockwork.NewRealClock()
	store, err := storage.New(persister, storage.Defaults{SpreadsheetID: cfg.DefaultSpreadsheetID}, clock, logger)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	exporter, err := openSheets(signalCtx, cfg)
	if err != nil {
		return err
	}

	svc, err := standup.New(standup.Config{Store: store, Sheets: exporter, Clock: clock, Logger: logger})
	if err != nil {
		return err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	logger.Info("authorized", zap.String("bot", bot.Self.UserName),
		zap.String("storage", cfg.StorageDriver), zap.String("export", cfg.ExportDriver))

	h := handlers.New(handlers.Config{
		Bot:            bot,
		Service:        svc,
		BotID:          bot.Self.ID,
		BotUserName:    bot.Self.UserName,
		BotAdminIDs:    cfg.BotAdminIDs,
		ServiceAccount: cfg.GoogleClientEmail,
		Logger:         logger,
	})
	h.Reminders = scheduler.NewReminders(store, h, logger)

	ticks := make(chan time.Time, 1)
	sched, err := scheduler.Start(signalCtx, clock, ticks, logger)
	if err != nil {
		return err
	}
	defer sched.Shutdown() //nolint:errcheck

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: server.NewHTTPHandler(server.Dependencies{Logger: logger}),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", httpServer.Addr))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	runDone := make(chan error, 1)
	go func() { runDone <- h.Run(signalCtx, updates, ticks) }()

	select {
	case <-signalCtx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("http server", zap.Error(err))
	case err = <-runDone:
	}
	stop()
	bot.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}
