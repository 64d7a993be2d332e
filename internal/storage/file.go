package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileRecorder appends movements to a JSONL file. The append handle stays
// open for the recorder's lifetime; reads open the file separately.
type FileRecorder struct {
	path string
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
}

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &FileRecorder{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

// AppendMovement writes one line and syncs it, so a crash loses at most
// the movement being written.
func (r *FileRecorder) AppendMovement(m Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return fmt.Errorf("journal %s is closed", r.path)
	}
	if err := r.enc.Encode(m); err != nil {
		return fmt.Errorf("encode movement: %w", err)
	}
	if err := r.f.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// LoadMovements reads the whole journal. Malformed lines are skipped.
func (r *FileRecorder) LoadMovements() ([]Movement, error) {
	return r.scan(func(Movement) bool { return true })
}

// MovementsOn reads the movements of the day containing day.
func (r *FileRecorder) MovementsOn(day time.Time) ([]Movement, error) {
	return r.scan(func(m Movement) bool { return m.OnDay(day) })
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func (r *FileRecorder) scan(keep func(Movement) bool) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer func(f *os.File) { _ = f.Close() }(f)
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var out []Movement
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Movement
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		if keep(m) {
			out = append(out, m)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return out, nil
}
