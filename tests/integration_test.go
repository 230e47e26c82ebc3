package tests

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lightwave-voice/internal/application"
	"lightwave-voice/internal/infra/audio"
	"lightwave-voice/internal/infra/lightwave"
	"lightwave-voice/internal/pattern"
	"lightwave-voice/internal/resolve"
)

const integrationConfig = `room:
  - name: Lounge
    device:
      - Light
      - Lamp
    mood:
      - Relax
  - name: Kitchen
    device:
      - Spots
sequence:
  Movie Night:
    - "!R1D1F0"
custom_phrases:
  - inputs:
      - goodnight house
    action:
      - device
      - Lounge
      - Light
      - "off"
`

type recordedCommand struct {
	op                  string
	room, target, state string
}

type recordingActuator struct {
	mu       sync.Mutex
	commands []recordedCommand
}

func (r *recordingActuator) record(cmd recordedCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

func (r *recordingActuator) recorded() []recordedCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedCommand(nil), r.commands...)
}

func (r *recordingActuator) Send(_ context.Context, room, device, state string) error {
	r.record(recordedCommand{"send", room, device, state})
	return nil
}

func (r *recordingActuator) Mood(_ context.Context, room, target string) error {
	r.record(recordedCommand{"mood", room, target, ""})
	return nil
}

func (r *recordingActuator) Sequence(_ context.Context, name string) error {
	r.record(recordedCommand{"sequence", "", name, ""})
	return nil
}

func (r *recordingActuator) UpdateConfig(_ context.Context, _, _ string) error { return nil }
func (r *recordingActuator) ConfigFile() string                               { return "" }

// buildEngine wires the real configuration pipeline: YAML file to
// inventory to compiled matcher table to engine.
func buildEngine(t *testing.T, actuator application.Actuator) *application.Engine {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lightwaverf-config.yml")
	if err := os.WriteFile(path, []byte(integrationConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := lightwave.LoadConfig(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	inv := cfg.Inventory()
	table, err := pattern.Compile(inv)
	if err != nil {
		t.Fatalf("compiling patterns: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewEngine(table, resolve.New(inv), actuator, "", "", logger)
}

func TestIntegration_HTTPTextCommands(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	actuator := &recordingActuator{}
	engine := buildEngine(t, actuator)

	source := audio.NewHTTPSource("127.0.0.1:0", "", logger)
	assistant := application.NewAssistant(source, &application.NoopSTT{}, engine, &application.NoopNotifier{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = assistant.Run(ctx) }()

	post := func(text string) (int, map[string]string) {
		req := httptest.NewRequest(http.MethodPost, "/utterance", strings.NewReader(text))
		rec := httptest.NewRecorder()
		source.Handler().ServeHTTP(rec, req)
		var body map[string]string
		json.Unmarshal(rec.Body.Bytes(), &body)
		return rec.Code, body
	}

	code, body := post("turn on the light in the lounge")
	if code != http.StatusOK || body["response"] != "Turning on the Light in the Lounge." {
		t.Errorf("device command: %d %v", code, body)
	}

	code, body = post("goodnight house")
	if code != http.StatusOK || body["response"] != "Turning off the Light in the Lounge." {
		t.Errorf("custom phrase: %d %v", code, body)
	}

	code, body = post("run the movie night sequence")
	if code != http.StatusOK || body["response"] != "Running sequence Movie Night." {
		t.Errorf("sequence: %d %v", code, body)
	}

	code, body = post("turn on the disco ball in the lounge")
	if code != http.StatusOK || body["status"] != "unhandled" {
		t.Errorf("unknown device phrase: %d %v", code, body)
	}

	want := []recordedCommand{
		{"send", "Lounge", "Light", "on"},
		{"send", "Lounge", "Light", "off"},
		{"sequence", "", "Movie Night", ""},
	}
	got := actuator.recorded()
	if len(got) != len(want) {
		t.Fatalf("commands: %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestIntegration_FileSource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	actuator := &recordingActuator{}
	engine := buildEngine(t, actuator)

	dir := t.TempDir()
	source := audio.NewFileSource(dir)
	assistant := application.NewAssistant(source, &application.NoopSTT{}, engine, &application.NoopNotifier{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = assistant.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "cmd.txt"), []byte("set all the lights in the kitchen to low\n"), 0644); err != nil {
		t.Fatal(err)
	}

	responsePath := filepath.Join(dir, "cmd.response")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if data, err := os.ReadFile(responsePath); err == nil {
			if got := strings.TrimSpace(string(data)); got != "Setting all the lights in the Kitchen to low." {
				t.Errorf("response file: %q", got)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no response file written")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if got := actuator.recorded(); len(got) != 1 || got[0] != (recordedCommand{"mood", "Kitchen", "alllow", ""}) {
		t.Errorf("commands: %+v", got)
	}
}
