package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lightwave-voice/internal/application"
	"lightwave-voice/internal/domain"
)

// FileSource watches a directory for dropped utterances. Text files
// (.txt) are taken verbatim; audio files go through transcription.
// The spoken response is written next to the input as <name>.response.
type FileSource struct {
	dir       string
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:       dir,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating utterance dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) Next(ctx context.Context) (*application.Turn, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			turn, err := f.checkForNewFile()
			if err != nil {
				return nil, err
			}
			if turn != nil {
				return turn, nil
			}
		}
	}
}

func (f *FileSource) checkForNewFile() (*application.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".wav" && ext != ".mp3" && ext != ".m4a" && ext != ".webm" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true

		processedPath := path + ".processed"
		os.Rename(path, processedPath)

		if ext == ".txt" {
			text := strings.TrimSpace(string(data))
			data = []byte(domain.TextCommandPrefix + text)
		}

		responsePath := strings.TrimSuffix(path, ext) + ".response"
		turn := application.NewTurn(data, func(response string) {
			if response == "" {
				return
			}
			os.WriteFile(responsePath, []byte(response+"\n"), 0644)
		})
		return turn, nil
	}

	return nil, nil
}
