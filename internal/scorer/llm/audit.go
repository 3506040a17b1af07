package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// AuditRecord is the mandatory audit trail entry for one LLM call. A score
// is only usable after its record has been sunk; this is a compliance
// requirement of the LLM strategy, not debug telemetry.
type AuditRecord struct {
	PromptVersion string  `json:"prompt_version"`
	PromptHash    string  `json:"prompt_hash"`
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	TokenCount    int     `json:"token_count"`
	Response      string  `json:"response"`
	Timestamp     int64   `json:"timestamp"` // Unix seconds
}

// AuditSink receives audit records. Injected into the LLM scorer so tests
// can assert on records without touching real storage.
type AuditSink interface {
	Write(record AuditRecord) error
}

// FileSink appends audit records as JSON lines to a local file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a JSONL file sink at the given path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Write appends one record. The file is opened per write so a crashed run
// never holds the audit log hostage.
func (s *FileSink) Write(record AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// MemorySink collects audit records in memory, for tests.
type MemorySink struct {
	mu      sync.Mutex
	records []AuditRecord
}

// NewMemorySink creates an in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write stores the record.
func (s *MemorySink) Write(record AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of the collected records.
func (s *MemorySink) Records() []AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

// now is separated for deterministic tests.
var now = func() int64 { return time.Now().Unix() }
