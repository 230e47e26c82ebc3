package audio

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lightwave-voice/internal/domain"
)

func newTestSource(token string) *HTTPSource {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPSource("127.0.0.1:0", token, logger)
}

// completeTurns answers every queued turn with a fixed response until
// the context is cancelled.
func completeTurns(ctx context.Context, h *HTTPSource, response string) {
	go func() {
		for {
			turn, err := h.Next(ctx)
			if err != nil {
				return
			}
			turn.Complete(response)
		}
	}()
}

func TestHTTPSource_Utterance(t *testing.T) {
	h := newTestSource("")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	completeTurns(ctx, h, "Turning on the Lamp in the Lounge.")

	req := httptest.NewRequest(http.MethodPost, "/utterance", strings.NewReader("turn on the lamp in the lounge"))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["response"] != "Turning on the Lamp in the Lounge." {
		t.Errorf("body: %v", body)
	}
}

func TestHTTPSource_UtteranceCarriesTextPrefix(t *testing.T) {
	h := newTestSource("")

	var got []byte
	go func() {
		turn, err := h.Next(context.Background())
		if err != nil {
			return
		}
		got = turn.Data
		turn.Complete("done")
	}()

	req := httptest.NewRequest(http.MethodPost, "/utterance", strings.NewReader("test lightwave"))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	if want := domain.TextCommandPrefix + "test lightwave"; string(got) != want {
		t.Errorf("turn data: %q, want %q", got, want)
	}
}

func TestHTTPSource_UnhandledUtterance(t *testing.T) {
	h := newTestSource("")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	completeTurns(ctx, h, "")

	req := httptest.NewRequest(http.MethodPost, "/utterance", strings.NewReader("make me a sandwich"))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "unhandled" {
		t.Errorf("body: %v", body)
	}
}

func TestHTTPSource_Audio(t *testing.T) {
	h := newTestSource("")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	completeTurns(ctx, h, "Running sequence Movie Night.")

	req := httptest.NewRequest(http.MethodPost, "/audio", strings.NewReader("RIFF....WAVE"))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	// Empty body is rejected before queueing.
	req = httptest.NewRequest(http.MethodPost, "/audio", strings.NewReader(""))
	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty audio: status %d", rec.Code)
	}
}

func TestHTTPSource_Auth(t *testing.T) {
	h := newTestSource("secret")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	completeTurns(ctx, h, "ok")

	req := httptest.NewRequest(http.MethodPost, "/utterance", strings.NewReader("test lightwave"))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/utterance", strings.NewReader("test lightwave"))
	req.Header.Set("X-Auth-Token", "secret")
	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("header token: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/utterance?token=secret", strings.NewReader("test lightwave"))
	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("query token: status %d", rec.Code)
	}
}

func TestHTTPSource_Location(t *testing.T) {
	h := newTestSource("")

	payload := `{"latitude":51.5,"longitude":-0.12}`
	req := httptest.NewRequest(http.MethodPost, "/location", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	// Location is informational; the payload comes back unchanged.
	if rec.Body.String() != payload {
		t.Errorf("body: %q", rec.Body.String())
	}
}

func TestHTTPSource_Health(t *testing.T) {
	h := newTestSource("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	// Not started yet: reports not ready.
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before start: status %d", rec.Code)
	}
}
