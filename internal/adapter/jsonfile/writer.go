// Package jsonfile writes scraped events to a JSON array file for dry runs
// and manual loading.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/hottag/hottag-etl/internal/domain"
)

// Writer collects events across batches and writes them on Close. It
// implements pipeline.BatchLoader. A path of "-" writes to stdout.
type Writer struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	events []domain.Event
	seen   map[string]bool
}

func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger, seen: make(map[string]bool)}
}

func (w *Writer) LoadBatch(_ context.Context, events []domain.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range events {
		if w.seen[e.ID] {
			continue
		}
		w.seen[e.ID] = true
		w.events = append(w.events, e)
	}
	return nil
}

// Len returns the number of collected events.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

// Close writes the collected events. Files are replaced atomically.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	events := w.events
	if events == nil {
		events = []domain.Event{}
	}

	if w.path == "-" {
		return encode(os.Stdout, events)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".events-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if err := encode(tmp, events); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	w.logger.Info("wrote events file", "path", w.path, "count", len(events))
	return nil
}

func encode(out io.Writer, events []domain.Event) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nil
}

// ReadEvents loads an events file written by Writer.
func ReadEvents(path string) ([]domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []domain.Event
	if err := json.NewDecoder(f).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return events, nil
}
