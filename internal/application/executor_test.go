package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"lightwave-voice/internal/application"
	"lightwave-voice/internal/domain"
	"lightwave-voice/internal/inventory"
	"lightwave-voice/internal/pattern"
	"lightwave-voice/internal/resolve"
)

type sentCall struct {
	room, device, state string
}

type moodCall struct {
	room, target string
}

type fakeActuator struct {
	sent      []sentCall
	moods     []moodCall
	sequences []string
	updates   []string
	fail      error
}

func (f *fakeActuator) Send(_ context.Context, room, device, state string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentCall{room, device, state})
	return nil
}

func (f *fakeActuator) Mood(_ context.Context, room, target string) error {
	if f.fail != nil {
		return f.fail
	}
	f.moods = append(f.moods, moodCall{room, target})
	return nil
}

func (f *fakeActuator) Sequence(_ context.Context, name string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sequences = append(f.sequences, name)
	return nil
}

func (f *fakeActuator) UpdateConfig(_ context.Context, email, _ string) error {
	if f.fail != nil {
		return f.fail
	}
	f.updates = append(f.updates, email)
	return nil
}

func (f *fakeActuator) ConfigFile() string {
	return "/home/pi/lightwaverf-config.yml"
}

func testInventory() *inventory.Inventory {
	return inventory.New(
		[]inventory.Room{
			{
				Name:    "Living Room",
				Devices: []inventory.Device{{Name: "Lamp"}},
				Moods:   []inventory.Mood{{Name: "Relax"}},
			},
			{
				Name:    "Kitchen",
				Devices: []inventory.Device{{Name: "Lamp"}},
			},
		},
		[]inventory.Sequence{{Name: "Movie Night"}},
		[]inventory.CustomPhrase{
			{
				Inputs: []string{"goodnight house"},
				Action: &domain.Action{Kind: domain.KindDevice, Room: "Living Room", Target: "Lamp", State: "off"},
			},
			{
				Inputs: []string{"cinema time"},
				Action: &domain.Action{Kind: domain.KindMood, Room: "atlantis", Target: "relax"},
			},
			{
				Inputs: []string{"party time"},
				Action: nil,
			},
		},
	)
}

func newEngine(t *testing.T, actuator application.Actuator, email, pin string) *application.Engine {
	t.Helper()
	inv := testInventory()
	table, err := pattern.Compile(inv)
	if err != nil {
		t.Fatalf("compiling: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewEngine(table, resolve.New(inv), actuator, email, pin, logger)
}

func TestEngine_DeviceCommand(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, handled := engine.Handle(context.Background(), "turn on the lamp in the living room")
	if !handled {
		t.Fatal("utterance not handled")
	}
	if response != "Turning on the Lamp in the Living Room." {
		t.Errorf("response: %q", response)
	}
	if len(actuator.sent) != 1 || actuator.sent[0] != (sentCall{"Living Room", "Lamp", "on"}) {
		t.Errorf("sent: %+v", actuator.sent)
	}
}

func TestEngine_CaseInsensitiveSameCommand(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	engine.Handle(context.Background(), "Turn ON the Lamp in the Kitchen")
	engine.Handle(context.Background(), "turn on the lamp in the kitchen")

	if len(actuator.sent) != 2 {
		t.Fatalf("sent: %+v", actuator.sent)
	}
	if actuator.sent[0] != actuator.sent[1] {
		t.Errorf("case variants produced different commands: %+v vs %+v",
			actuator.sent[0], actuator.sent[1])
	}
}

func TestEngine_DimCommand(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, handled := engine.Handle(context.Background(), "dim the lamp in the kitchen to 40 percent")
	if !handled {
		t.Fatal("utterance not handled")
	}
	if response != "Setting the Lamp in the Kitchen to 40 percent." {
		t.Errorf("response: %q", response)
	}
	if actuator.sent[0].state != "40" {
		t.Errorf("state: %q", actuator.sent[0].state)
	}
}

func TestEngine_WholeHouseOff(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, handled := engine.Handle(context.Background(), "turn off all the lights in the house")
	if !handled {
		t.Fatal("utterance not handled")
	}
	if response != "Turning off all the lights in the house." {
		t.Errorf("response: %q", response)
	}
	if len(actuator.moods) != 1 || actuator.moods[0] != (moodCall{"all", "alloff"}) {
		t.Errorf("moods: %+v", actuator.moods)
	}
}

func TestEngine_RoomBulk(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, _ := engine.Handle(context.Background(), "set all the lights in the kitchen to low")
	if response != "Setting all the lights in the Kitchen to low." {
		t.Errorf("low response: %q", response)
	}

	// Numeric bulk levels resolve and report the protocol level code.
	response, _ = engine.Handle(context.Background(), "set all the lights in the kitchen to 50")
	if response != "Setting all the lights in the Kitchen to 50 percent, level FdP16." {
		t.Errorf("percent response: %q", response)
	}

	if len(actuator.moods) != 2 {
		t.Fatalf("moods: %+v", actuator.moods)
	}
	if actuator.moods[0] != (moodCall{"Kitchen", "alllow"}) || actuator.moods[1] != (moodCall{"Kitchen", "all50"}) {
		t.Errorf("moods: %+v", actuator.moods)
	}
}

func TestEngine_Mood(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, handled := engine.Handle(context.Background(), "set the relax mood in the living room")
	if !handled {
		t.Fatal("utterance not handled")
	}
	if response != "Setting mood Relax in the Living Room." {
		t.Errorf("response: %q", response)
	}
	if len(actuator.moods) != 1 || actuator.moods[0] != (moodCall{"Living Room", "Relax"}) {
		t.Errorf("moods: %+v", actuator.moods)
	}
}

func TestEngine_Sequence(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, _ := engine.Handle(context.Background(), "run the movie night sequence")
	if response != "Running sequence Movie Night." {
		t.Errorf("response: %q", response)
	}
	if len(actuator.sequences) != 1 || actuator.sequences[0] != "Movie Night" {
		t.Errorf("sequences: %+v", actuator.sequences)
	}
}

func TestEngine_CustomPhrases(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "", "")

	response, _ := engine.Handle(context.Background(), "goodnight house")
	if response != "Turning off the Lamp in the Living Room." {
		t.Errorf("response: %q", response)
	}

	// Configured action pointing at an unknown room apologizes with the
	// room name.
	response, _ = engine.Handle(context.Background(), "cinema time")
	if !strings.Contains(response, "atlantis") {
		t.Errorf("response does not name the room: %q", response)
	}

	// Missing action is a configuration error, reported distinctly.
	response, _ = engine.Handle(context.Background(), "party time")
	if response != "I'm sorry, that phrase doesn't have an action set up." {
		t.Errorf("response: %q", response)
	}
}

func TestEngine_ActuatorFailure(t *testing.T) {
	actuator := &fakeActuator{fail: errors.New("link unreachable")}
	engine := newEngine(t, actuator, "", "")

	response, handled := engine.Handle(context.Background(), "turn on the lamp in the living room")
	if !handled {
		t.Fatal("utterance not handled")
	}
	if response != "Sorry, I encountered an error" {
		t.Errorf("response: %q", response)
	}
}

func TestEngine_Status(t *testing.T) {
	engine := newEngine(t, &fakeActuator{}, "", "")

	response, _ := engine.Handle(context.Background(), "test lightwave")
	if !strings.Contains(response, "/home/pi/lightwaverf-config.yml") {
		t.Errorf("response: %q", response)
	}
}

func TestEngine_UpdateConfig(t *testing.T) {
	actuator := &fakeActuator{}
	engine := newEngine(t, actuator, "user@example.com", "1234")

	response, _ := engine.Handle(context.Background(), "update my lightwave config")
	if response != "Updating the LightwaveRF configuration for user@example.com from the server." {
		t.Errorf("response: %q", response)
	}
	if len(actuator.updates) != 1 || actuator.updates[0] != "user@example.com" {
		t.Errorf("updates: %+v", actuator.updates)
	}

	// Without credentials the phrase degrades to an apology.
	engine = newEngine(t, actuator, "", "")
	response, _ = engine.Handle(context.Background(), "update my lightwave config")
	if !strings.Contains(response, "I don't seem to have access to the server") {
		t.Errorf("response: %q", response)
	}
}

func TestEngine_NoMatch(t *testing.T) {
	engine := newEngine(t, &fakeActuator{}, "", "")

	if _, handled := engine.Handle(context.Background(), "make me a sandwich"); handled {
		t.Error("nonsense utterance was handled")
	}
}
