package main

import (
	"QwenBot/api"
	"QwenBot/bot"
	"QwenBot/core"
	"QwenBot/holder"
	"QwenBot/lib/sl"
	"QwenBot/ocr"
	"QwenBot/ocr/tesseract"
	"QwenBot/router"
	"QwenBot/storage"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := core.MustLoad(*configPath)
	log := setupLogger(conf.Env)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("api", conf.Api.BaseURL),
		slog.String("model", conf.DefaultModel),
		sl.Secret(conf.TelegramApiKey),
	).Info("starting qwen bot")

	sessions := holder.NewSessionManager(openStorage(conf, log), conf.DefaultModel)

	client := api.NewClient(conf, log)
	checkStatus(client, log)

	log.With(
		slog.String("tesseract", tesseract.Version()),
		slog.String("languages", strings.Join(conf.Ocr.Languages, ",")),
	).Info("ocr ready")
	extractor := ocr.NewAdapter(tesseract.New(), conf.Ocr.Languages, log)

	tgBot, err := bot.NewTgBot(conf, log)
	if err != nil {
		log.Error("creating telegram", sl.Err(err))
		_ = sessions.Close()
		return
	}
	tgBot.SetHandler(router.New(conf, log, sessions, client, extractor, tgBot))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := tgBot.Start(); err != nil {
			log.Error("bot stopped with error", sl.Err(err))
			sigChan <- syscall.SIGTERM
		}
	}()

	log.Info("bot started")

	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	tgBot.Stop()

	if err := sessions.Close(); err != nil {
		log.Error("closing session storage", sl.Err(err))
	}

	log.Info("shutdown complete")
}

func openStorage(conf *core.Config, log *slog.Logger) storage.SessionStorage {
	switch conf.Storage.Driver {
	case core.StorageMongo:
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		store, err := storage.NewMongoStorage(mongoURI, conf.Mongo.Database, log)
		if err != nil {
			log.With(
				slog.String("db", conf.Mongo.Database),
				slog.String("user", conf.Mongo.User),
				slog.String("host", conf.Mongo.Host),
			).Error("falling back to memory", sl.Err(err))
			return storage.NewMemoryStorage()
		}
		log.Info("using MongoDB storage")
		return store
	case core.StorageSqlite:
		store, err := storage.NewSqliteStorage(conf.Storage.SqlitePath)
		if err != nil {
			log.With(slog.String("path", conf.Storage.SqlitePath)).Error("falling back to memory", sl.Err(err))
			return storage.NewMemoryStorage()
		}
		log.With(slog.String("path", conf.Storage.SqlitePath)).Info("using SQLite storage")
		return store
	}
	log.Info("using in-memory storage")
	return storage.NewMemoryStorage()
}

func checkStatus(client *api.Client, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		log.Warn("conversation api status unknown", sl.Err(err))
		return
	}
	log.With(
		slog.Bool("authenticated", status.Authenticated),
		slog.String("message", status.Message),
	).Info("conversation api status")
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	switch env {
	case envLocal, envDev:
		level = slog.LevelDebug
	case envProd:
		level = slog.LevelInfo
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	)
}
