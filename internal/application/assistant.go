package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"lightwave-voice/internal/domain"
)

// Assistant runs the turn loop: take one utterance from the source,
// transcribe it if it arrived as audio, hand it to the engine, notify
// the spoken response, and complete the turn. Turns are strictly
// sequential; the source blocks on completion before delivering the
// next one.
type Assistant struct {
	source   UtteranceSource
	stt      SpeechToText
	engine   *Engine
	notifier Notifier
	logger   *slog.Logger
}

func NewAssistant(
	source UtteranceSource,
	stt SpeechToText,
	engine *Engine,
	notifier Notifier,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		source:   source,
		stt:      stt,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
	}
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting utterance source", "source", a.source.Name())
	if err := a.source.Start(ctx); err != nil {
		return fmt.Errorf("starting source: %w", err)
	}
	defer a.source.Stop()

	a.logger.Info("assistant ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneTurn(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing turn", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneTurn(ctx context.Context) error {
	turn, err := a.source.Next(ctx)
	if err != nil {
		return fmt.Errorf("getting utterance: %w", err)
	}
	if turn == nil || len(turn.Data) == 0 {
		return nil
	}

	// The turn must be completed exactly once, whatever happens, so
	// the source never hangs waiting for a reply.
	defer turn.Complete("")

	turnID := uuid.NewString()

	var text string
	if directText, isText := isTextTurn(turn.Data); isText {
		a.logger.Info("received text command", "turn", turnID, "text", directText)
		text = directText
	} else {
		a.logger.Info("received audio", "turn", turnID, "bytes", len(turn.Data))

		text, err = a.stt.Transcribe(ctx, turn.Data)
		if err != nil {
			return fmt.Errorf("transcribing: %w", err)
		}
		a.logger.Info("transcribed", "turn", turnID, "text", text)
	}

	response, handled := a.engine.Handle(ctx, text)
	if !handled {
		a.logger.Warn("no pattern matched, skipping", "turn", turnID, "text", text)
		return nil
	}

	a.logger.Info("responding", "turn", turnID, "response", response)

	if err := a.notifier.Notify(ctx, response); err != nil {
		a.logger.Error("notifying response", "turn", turnID, "error", err)
	}

	turn.Complete(response)
	return nil
}

func isTextTurn(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
