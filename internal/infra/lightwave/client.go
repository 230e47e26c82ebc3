package lightwave

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"lightwave-voice/internal/domain"
	"lightwave-voice/internal/infra"
)

// Client drives a LightwaveRF Wi-Fi Link. Commands are short ASCII
// frames over UDP ("100,!R1D2F1|Lounge|Light on"); configuration comes
// from a YAML file owned by the vendor's web service.
type Client struct {
	linkAddr   string
	configPath string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	mu    sync.Mutex
	msgID int
	index map[string]roomEntry
}

// roomEntry maps configured names to the 1-based protocol numbers the
// link expects. Numbering follows configuration order.
type roomEntry struct {
	num     int
	devices map[string]int
	moods   map[string]int
}

func NewClient(host string, port int, configPath string, logger *slog.Logger) *Client {
	return NewClientWithURL(host, port, configPath, "https://manager.lightwaverf.com", logger)
}

func NewClientWithURL(host string, port int, configPath, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		linkAddr:   fmt.Sprintf("%s:%d", host, port),
		configPath: configPath,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		timeout:    3 * time.Second,
		logger:     logger,
	}
}

func (c *Client) ConfigFile() string {
	return c.configPath
}

// Send transmits an on/off/dim command for a single device. State is
// "on", "off" or a 1-99 percentage; unrecognized states pass through
// on the wire unchanged.
func (c *Client) Send(ctx context.Context, room, device, state string) error {
	entry, ok := c.roomEntry(room)
	if !ok {
		return fmt.Errorf("room %q not in lightwave config", room)
	}
	devNum, ok := entry.devices[nameKey(device)]
	if !ok {
		return fmt.Errorf("device %q not in room %q", device, room)
	}

	var fn string
	switch state {
	case "on":
		fn = "F1"
	case "off":
		fn = "F0"
	default:
		if percent, ok := domain.ParsePercent(state); ok {
			fn = fmt.Sprintf("%s%d", domain.DimMarker, domain.DimLevel(percent))
		} else {
			fn = "F" + state
		}
	}

	body := fmt.Sprintf("!R%dD%d%s|%s|%s %s", entry.num, devNum, fn, room, device, state)
	return c.transmit(ctx, body)
}

// Mood activates a named mood or a bulk pseudo-mood ("all" + state) in
// a room; the pseudo-room "all" switches off the whole house.
func (c *Client) Mood(ctx context.Context, room, target string) error {
	if nameKey(room) == domain.RoomAll {
		return c.transmit(ctx, "!Fa|All|Off")
	}

	entry, ok := c.roomEntry(room)
	if !ok {
		return fmt.Errorf("room %q not in lightwave config", room)
	}

	if state, isBulk := strings.CutPrefix(nameKey(target), domain.BulkPrefix); isBulk {
		return c.transmit(ctx, c.bulkFrame(entry.num, room, state))
	}

	moodNum, ok := entry.moods[nameKey(target)]
	if !ok {
		return fmt.Errorf("mood %q not in room %q", target, room)
	}
	return c.transmit(ctx, fmt.Sprintf("!R%dFmP%d|%s|%s", entry.num, moodNum, room, target))
}

func (c *Client) bulkFrame(roomNum int, room, state string) string {
	switch state {
	case "off":
		return fmt.Sprintf("!R%dFa|%s|All off", roomNum, room)
	case "on":
		return fmt.Sprintf("!R%dFaP1|%s|All on", roomNum, room)
	}
	if level, ok := domain.BulkLevels[state]; ok {
		return fmt.Sprintf("!R%d%s%d|%s|All %s", roomNum, domain.DimMarker, level, room, state)
	}
	if percent, ok := domain.ParsePercent(state); ok {
		return fmt.Sprintf("!R%d%s%d|%s|All %d%%", roomNum, domain.DimMarker, domain.DimLevel(percent), room, percent)
	}
	return fmt.Sprintf("!R%dFaP%s|%s|All %s", roomNum, state, room, state)
}

// Sequence starts a stored sequence by its display name.
func (c *Client) Sequence(ctx context.Context, name string) error {
	return c.transmit(ctx, fmt.Sprintf("!FqP\"%s\"|Sequence|%s", name, name))
}

// transmit writes one numbered frame to the link with a bounded
// deadline. Links acknowledge with "<id>,OK"; older firmware stays
// silent, so a read timeout is not a failure, only an explicit error
// reply is.
func (c *Client) transmit(ctx context.Context, body string) error {
	c.mu.Lock()
	c.msgID = c.msgID%999 + 1
	id := c.msgID
	c.mu.Unlock()

	frame := fmt.Sprintf("%03d,%s", id, body)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", c.linkAddr)
	if err != nil {
		return fmt.Errorf("dialing link: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("setting deadline: %w", err)
	}

	c.logger.Debug("sending frame", "frame", frame, "link", c.linkAddr)

	if _, err := conn.Write([]byte(frame)); err != nil {
		return fmt.Errorf("sending frame: %w", err)
	}

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil
		}
		return fmt.Errorf("reading ack: %w", err)
	}

	ack := string(buf[:n])
	c.logger.Debug("link replied", "ack", ack)
	if strings.Contains(ack, "ERR") {
		return fmt.Errorf("link rejected frame: %s", strings.TrimSpace(ack))
	}
	return nil
}

// UpdateConfig fetches a fresh configuration snapshot from the vendor
// web service and rewrites the config file. The running inventory is
// not rebuilt; a restart picks the new file up.
func (c *Client) UpdateConfig(ctx context.Context, email, pin string) error {
	form := url.Values{}
	form.Set("email", email)
	form.Set("pin", pin)

	var body []byte
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			c.baseURL+"/config",
			strings.NewReader(form.Encode()),
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching config: %w", err)
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if infra.IsRetryableHTTPStatus(resp.StatusCode) {
			return fmt.Errorf("config service error %d (retryable)", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("config service error: %s", resp.Status)
		}
		return nil
	})
	if retryErr != nil {
		return retryErr
	}

	// Validate before replacing the file so a bad download can't break
	// the next startup.
	var cfg Config
	if err := yaml.Unmarshal(body, &cfg); err != nil {
		return fmt.Errorf("downloaded config invalid: %w", err)
	}

	tmp := c.configPath + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, c.configPath); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}

	// The numbering index is stale now; drop it so the next command
	// reloads from the new file.
	c.mu.Lock()
	c.index = nil
	c.mu.Unlock()

	c.logger.Info("lightwave config updated", "path", c.configPath)
	return nil
}

func (c *Client) roomEntry(room string) (roomEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == nil {
		cfg, err := LoadConfig(c.configPath)
		if err != nil {
			c.logger.Error("loading lightwave config", "error", err)
			return roomEntry{}, false
		}
		c.index = buildIndex(cfg)
	}

	entry, ok := c.index[nameKey(room)]
	return entry, ok
}

func buildIndex(cfg *Config) map[string]roomEntry {
	index := make(map[string]roomEntry, len(cfg.Rooms))
	for i, rc := range cfg.Rooms {
		entry := roomEntry{
			num:     i + 1,
			devices: make(map[string]int, len(rc.Devices)),
			moods:   make(map[string]int, len(rc.Moods)),
		}
		for j, d := range rc.Devices {
			entry.devices[nameKey(d)] = j + 1
		}
		for j, m := range rc.Moods {
			entry.moods[nameKey(m)] = j + 1
		}
		index[nameKey(rc.Name)] = entry
	}
	return index
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
