package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lightwave-voice/internal/domain"
	"lightwave-voice/internal/pattern"
	"lightwave-voice/internal/resolve"
)

// spokenError is the generic apology for actuator-level failures.
const spokenError = "Sorry, I encountered an error"

// Engine turns an utterance into a spoken response: match against the
// compiled table, resolve slots, dispatch to the actuator, phrase the
// outcome. Every failure is recovered here; nothing propagates past
// the turn.
type Engine struct {
	table    *pattern.Table
	resolver *resolve.Resolver
	actuator Actuator
	email    string
	pin      string
	logger   *slog.Logger
}

func NewEngine(
	table *pattern.Table,
	resolver *resolve.Resolver,
	actuator Actuator,
	email, pin string,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		table:    table,
		resolver: resolver,
		actuator: actuator,
		email:    email,
		pin:      pin,
		logger:   logger,
	}
}

// Handle matches and executes one utterance. The second return is false
// when no pattern matched; the host's own fallback applies then.
func (e *Engine) Handle(ctx context.Context, utterance string) (string, bool) {
	m, ok := e.table.Match(utterance)
	if !ok {
		return "", false
	}

	e.logger.Debug("matched utterance",
		"kind", m.Kind,
		"room", m.Slots.Room,
		"target", m.Slots.Target,
		"state", m.Slots.State,
	)

	switch m.Kind {
	case domain.KindStatus:
		return e.status(), true
	case domain.KindUpdate:
		return e.updateConfig(ctx), true
	}

	var cmd *domain.Command
	var err error
	if m.Kind == domain.KindCustom {
		cmd, err = e.resolver.ResolveAction(m.Action)
	} else {
		cmd, err = e.resolver.Resolve(m.Kind, m.Slots)
	}
	if err != nil {
		var rerr *domain.ResolutionError
		if errors.As(err, &rerr) {
			e.logger.Info("command not resolved", "error", err)
			return rerr.Spoken(), true
		}
		e.logger.Error("resolving command", "error", err)
		return spokenError, true
	}

	if err := e.dispatch(ctx, cmd); err != nil {
		e.logger.Error("dispatching command",
			"kind", cmd.Kind,
			"room", cmd.Room,
			"target", cmd.Target,
			"error", err,
		)
		return spokenError, true
	}

	return confirmation(cmd), true
}

func (e *Engine) dispatch(ctx context.Context, cmd *domain.Command) error {
	switch cmd.Kind {
	case domain.KindDevice:
		return e.actuator.Send(ctx, cmd.Room, cmd.Target, cmd.State)
	case domain.KindMood:
		return e.actuator.Mood(ctx, cmd.Room, cmd.Target)
	case domain.KindSequence:
		return e.actuator.Sequence(ctx, cmd.Target)
	default:
		return fmt.Errorf("unknown command kind: %s", cmd.Kind)
	}
}

func (e *Engine) status() string {
	path := e.actuator.ConfigFile()
	if path == "" {
		return "LightWave is in my control!"
	}
	return fmt.Sprintf("LightWave is in my control using the following config file: %s", path)
}

func (e *Engine) updateConfig(ctx context.Context) string {
	if e.email == "" || e.pin == "" {
		return "I'm sorry, I don't seem to have access to the server. Have you updated the config file correctly?"
	}
	if err := e.actuator.UpdateConfig(ctx, e.email, e.pin); err != nil {
		e.logger.Error("updating lightwave config", "error", err)
		return spokenError
	}
	return fmt.Sprintf("Updating the LightwaveRF configuration for %s from the server.", e.email)
}

func confirmation(cmd *domain.Command) string {
	switch cmd.Kind {
	case domain.KindDevice:
		if cmd.State == "on" || cmd.State == "off" {
			return fmt.Sprintf("Turning %s the %s in the %s.", cmd.State, cmd.Target, cmd.Room)
		}
		return fmt.Sprintf("Setting the %s in the %s to %s percent.", cmd.Target, cmd.Room, cmd.State)

	case domain.KindMood:
		if cmd.Room == domain.RoomAll {
			return "Turning off all the lights in the house."
		}
		if cmd.State != "" {
			return bulkConfirmation(cmd)
		}
		return fmt.Sprintf("Setting mood %s in the %s.", cmd.Target, cmd.Room)

	case domain.KindSequence:
		return fmt.Sprintf("Running sequence %s.", cmd.Target)
	}
	return spokenError
}

func bulkConfirmation(cmd *domain.Command) string {
	switch cmd.State {
	case "off", "on":
		return fmt.Sprintf("Turning %s all the lights in the %s.", cmd.State, cmd.Room)
	case "low", "mid", "high", "full":
		return fmt.Sprintf("Setting all the lights in the %s to %s.", cmd.Room, cmd.State)
	}
	if percent, ok := domain.ParsePercent(cmd.State); ok {
		return fmt.Sprintf("Setting all the lights in the %s to %d percent, level %s%d.",
			cmd.Room, percent, domain.DimMarker, domain.DimLevel(percent))
	}
	return fmt.Sprintf("Setting all the lights in the %s to state %s.", cmd.Room, cmd.State)
}
