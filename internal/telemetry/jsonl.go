// Package telemetry holds router sinks that persist or publish engine events.
package telemetry

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/JoeTonDev/trading-fractals/internal/event"
)

// JSONLSink appends every observed event as one kind/payload envelope per line.
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewJSONLSink creates/opens the target file for appending.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{file: file, w: bufio.NewWriter(file)}, nil
}

func (s *JSONLSink) Name() string { return "jsonl" }

// Observe writes e as a single line.
func (s *JSONLSink) Observe(e event.Event) error {
	data, err := event.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("jsonl sink closed")
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close flushes and closes the file handle.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	flushErr := s.w.Flush()
	err := s.file.Close()
	s.file = nil
	return errors.Join(flushErr, err)
}
