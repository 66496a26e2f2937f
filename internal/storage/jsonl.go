package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yieldfarm/internal/model"
)

// JsonlEventLog appends event records to a JSONL file.
type JsonlEventLog struct {
	path string
	mu   sync.Mutex
}

func NewJsonlEventLog(path string) *JsonlEventLog {
	return &JsonlEventLog{path: path}
}

// PutEventBatch appends a batch of events as JSON lines.
func (s *JsonlEventLog) PutEventBatch(events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	if err := ensureDir(s.path); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range events {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}

	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
