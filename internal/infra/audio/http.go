package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"lightwave-voice/internal/application"
	"lightwave-voice/internal/domain"
)

// replyTimeout bounds how long a handler waits for the assistant to
// complete a turn before giving up on the HTTP response.
const replyTimeout = 30 * time.Second

// HTTPSource delivers utterances over HTTP. Each request becomes one
// turn; the handler blocks until the turn completes and the spoken
// response travels back in the response body.
type HTTPSource struct {
	addr        string
	server      *http.Server
	turns       chan *application.Turn
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		turns:       make(chan *application.Turn, 10),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
		authToken:   authToken,
	}
	// Rate limiting on command endpoints only
	h.mux.HandleFunc("POST /audio", h.rateLimiter.Middleware(h.handleAudio))
	h.mux.HandleFunc("POST /utterance", h.rateLimiter.Middleware(h.handleUtterance))
	h.mux.HandleFunc("POST /location", h.handleLocation)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: replyTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP utterance server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.turns)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) Next(ctx context.Context) (*application.Turn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case turn, ok := <-h.turns:
		if !ok {
			return nil, fmt.Errorf("turn channel closed")
		}
		return turn, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

func (h *HTTPSource) authorized(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return token == h.authToken
}

// enqueue queues one turn and waits for its completion, returning the
// spoken response.
func (h *HTTPSource) enqueue(r *http.Request, data []byte) (string, error) {
	replyCh := make(chan string, 1)
	turn := application.NewTurn(data, func(response string) {
		replyCh <- response
	})

	select {
	case h.turns <- turn:
	default:
		return "", fmt.Errorf("queue full")
	}

	select {
	case response := <-replyCh:
		return response, nil
	case <-time.After(replyTimeout):
		return "", fmt.Errorf("timed out waiting for response")
	case <-r.Context().Done():
		return "", r.Context().Err()
	}
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warn("unauthorized audio request", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	h.logger.Info("received audio via HTTP", "bytes", len(data))
	h.respond(w, r, data)
}

func (h *HTTPSource) handleUtterance(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warn("unauthorized utterance request", "remote_addr", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty utterance", http.StatusBadRequest)
		return
	}

	h.logger.Info("received utterance via HTTP", "text", text)
	h.respond(w, r, []byte(domain.TextCommandPrefix+text))
}

func (h *HTTPSource) respond(w http.ResponseWriter, r *http.Request, data []byte) {
	response, err := h.enqueue(r, data)
	if err != nil {
		h.logger.Warn("turn not completed", "error", err)
		http.Error(w, "busy, try again", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if response == "" {
		// No pattern matched; the caller's own fallback applies.
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhandled"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "response": response})
}

// handleLocation accepts the host's location payload. It is
// informational only: logged and echoed back unchanged, no command
// semantics.
func (h *HTTPSource) handleLocation(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var loc struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &loc); err == nil {
		h.logger.Info("user location", "lat", loc.Latitude, "long", loc.Longitude)
	} else {
		h.logger.Info("user location", "payload", string(data))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.turns)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":"%s","running":%t,"queue_size":%d}`, status, running, queueSize)
}
