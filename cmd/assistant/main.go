package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lightwave-voice/config"
	"lightwave-voice/internal/application"
	"lightwave-voice/internal/infra/audio"
	"lightwave-voice/internal/infra/lightwave"
	"lightwave-voice/internal/infra/openai"
	"lightwave-voice/internal/infra/pushover"
	"lightwave-voice/internal/pattern"
	"lightwave-voice/internal/resolve"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log, cfg.Lightwave.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	actuator := lightwave.NewClient(
		cfg.Lightwave.Host,
		cfg.Lightwave.Port,
		cfg.Lightwave.ConfigFile,
		logger,
	)

	lwrfConfig, err := lightwave.LoadConfig(cfg.Lightwave.ConfigFile)
	if err != nil {
		logger.Error("loading lightwave config", "error", err)
		os.Exit(1)
	}

	inv := lwrfConfig.Inventory()
	table, err := pattern.Compile(inv)
	if err != nil {
		logger.Error("compiling phrase patterns", "error", err)
		os.Exit(1)
	}

	logger.Info("phrase patterns compiled",
		"rooms", len(inv.Rooms()),
		"sequences", len(inv.Sequences()),
		"custom_phrases", len(inv.CustomPhrases()),
		"matchers", table.Len(),
	)

	engine := application.NewEngine(
		table,
		resolve.New(inv),
		actuator,
		cfg.Lightwave.Email,
		cfg.Lightwave.Pin,
		logger,
	)

	source := createSource(cfg.Audio, logger)

	var stt application.SpeechToText
	if cfg.OpenAI.APIKey != "" {
		stt = openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	} else {
		stt = &application.NoopSTT{}
	}

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	assistant := application.NewAssistant(source, stt, engine, notifier, logger)

	logger.Info("starting lightwave voice assistant",
		"source", cfg.Audio.Source,
		"link", cfg.Lightwave.Host,
	)

	if err := assistant.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func createSource(cfg config.AudioConfig, logger *slog.Logger) application.UtteranceSource {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, logger)
	default:
		logger.Warn("unknown utterance source, using http", "source", cfg.Source)
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func setupLogger(cfg config.LogConfig, debug bool) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
